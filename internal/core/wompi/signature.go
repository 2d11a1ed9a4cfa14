package wompi

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// IntegritySignature signs a transaction request: sha256(reference + amountInCents + currency + secret).
func IntegritySignature(reference string, amountInCents int64, currency, secret string) string {
	sum := sha256.Sum256([]byte(reference + strconv.FormatInt(amountInCents, 10) + currency + secret))
	return hex.EncodeToString(sum[:])
}

// EventChecksum computes the checksum of a webhook event from its signed properties,
// the timestamp and the events secret.
func EventChecksum(event Event, secret string) string {
	var b strings.Builder
	for _, prop := range event.Signature.Properties {
		b.WriteString(eventProperty(event.Data.Transaction, prop))
	}
	b.WriteString(strconv.FormatInt(event.Timestamp, 10))
	b.WriteString(secret)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// VerifyEvent reports whether the event checksum matches. Checksums compare case-insensitively.
func VerifyEvent(event Event, secret string) bool {
	if secret == "" || event.Signature.Checksum == "" {
		return false
	}
	return strings.EqualFold(EventChecksum(event, secret), event.Signature.Checksum)
}

func eventProperty(tx Transaction, prop string) string {
	switch prop {
	case "transaction.id":
		return tx.ID
	case "transaction.status":
		return tx.Status
	case "transaction.amount_in_cents":
		return strconv.FormatInt(tx.AmountInCents, 10)
	case "transaction.reference":
		return tx.Reference
	case "transaction.currency":
		return tx.Currency
	case "transaction.payment_method_type":
		return tx.PaymentMethodType
	}
	return ""
}
