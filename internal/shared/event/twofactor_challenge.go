package event

import "time"

const TwoFactorChallengeDestination string = "twofactor_challenge_issued"
const TwoFactorChallengeConsumerNotification string = "twofactor_challenge_issued_notification"

type TwoFactorChallengeMessage struct {
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email"`
	ChallengeID int64     `json:"challenge_id"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
}
