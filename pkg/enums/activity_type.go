package enums

// ActivityType tags activity_log entries.
type ActivityType string

const (
	ActivityTypePurchase      ActivityType = "purchase"
	ActivityTypeSubscription  ActivityType = "subscription"
	ActivityTypePaymentFailed ActivityType = "payment_failed"
)

var validActivityTypes = []ActivityType{
	ActivityTypePurchase,
	ActivityTypeSubscription,
	ActivityTypePaymentFailed,
}

// IsValid reports whether the value is known.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}
