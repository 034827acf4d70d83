package prefs

import "context"

// ConsentKey records that the cookie banner was accepted.
const ConsentKey = "cookiesAccepted"

// Consent stores cookie banner acceptance.
type Consent struct {
	kv KV
}

// NewConsent returns a consent record backed by kv.
func NewConsent(kv KV) *Consent {
	return &Consent{kv: kv}
}

// Accepted reports whether consent was given. Any stored value counts.
func (c *Consent) Accepted(ctx context.Context) (bool, error) {
	raw, ok, err := c.kv.Get(ctx, ConsentKey)
	if err != nil {
		return false, err
	}
	return ok && raw != "", nil
}

// Accept records consent.
func (c *Consent) Accept(ctx context.Context) error {
	return c.kv.Set(ctx, ConsentKey, "true")
}
