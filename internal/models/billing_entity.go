package models

// BillingEntity is the party responsible for paying the shares of its units.
type BillingEntity struct {
	ID          string
	CommunityID string
	Code        string
	Name        string
}

// BillingEntityMember maps a unit to its billing entity for a window of periods.
type BillingEntityMember struct {
	BillingEntityID string
	UnitID          string
	Window
}
