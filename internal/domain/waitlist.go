package domain

import "time"

// WaitlistEntry is a customer's request to hear about a restock
type WaitlistEntry struct {
	ID         string    `json:"id"`
	ShopDomain string    `json:"shopDomain"`
	ProductID  string    `json:"productId"`
	VariantID  string    `json:"variantId"`
	Email      string    `json:"email"`
	Notified   bool      `json:"notified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WaitlistEntryView is an entry decorated with catalog titles for the admin
type WaitlistEntryView struct {
	WaitlistEntry
	ProductTitle string `json:"productTitle"`
	VariantTitle string `json:"variantTitle"`
}

// IDs returns the ids of the entries in order
func IDs(entries []*WaitlistEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// Emails returns the addresses of the entries in order
func Emails(entries []*WaitlistEntry) []string {
	emails := make([]string, 0, len(entries))
	for _, e := range entries {
		emails = append(emails, e.Email)
	}
	return emails
}
