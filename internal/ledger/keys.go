package ledger

import "fmt"

// Key namespaces. All ledger records are flat store keys; counters hold
// decimal integers, redeem codes hold JSON documents.
func pointsKey(userID int64) string         { return fmt.Sprintf("points:%d", userID) }
func referralsKey(userID int64) string      { return fmt.Sprintf("referrals:%d", userID) }
func referralPointsKey(userID int64) string { return fmt.Sprintf("referralPoints:%d", userID) }
func referredKey(userID int64) string       { return fmt.Sprintf("referred:%d", userID) }
func dailyKey(userID int64) string          { return fmt.Sprintf("daily:%d", userID) }
func redeemKey(code string) string          { return "redeem:" + code }

func redeemLockKey(code string, userID int64) string {
	return fmt.Sprintf("redeemlock:%s:%d", code, userID)
}

const referralsPrefix = "referrals:"
