package wompi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegritySignature(t *testing.T) {
	// sha256("sk8-438k4-xmxm392-sn2m2490000COPprod_integrity_Z5mMke9x0k8gpErbDqwrJXMqsI6SFli6")
	got := IntegritySignature("sk8-438k4-xmxm392-sn2m2", 2490000, "COP", "prod_integrity_Z5mMke9x0k8gpErbDqwrJXMqsI6SFli6")
	assert.Equal(t, "df566105a22149637b6b1a6539330ad8c959fd157a30bf5be5a4909753e94c42", got)
	assert.NotEqual(t, got, IntegritySignature("sk8-438k4-xmxm392-sn2m2", 2490001, "COP", "prod_integrity_Z5mMke9x0k8gpErbDqwrJXMqsI6SFli6"))
}

func TestVerifyEvent(t *testing.T) {
	event := Event{Event: "transaction.updated", Timestamp: 1530291411}
	event.Data.Transaction = Transaction{ID: "1234-1610641025-49201", Status: StatusApproved, AmountInCents: 4490000}
	event.Signature.Properties = []string{"transaction.id", "transaction.status", "transaction.amount_in_cents"}
	event.Signature.Checksum = EventChecksum(event, "events_secret")

	assert.True(t, VerifyEvent(event, "events_secret"))
	assert.False(t, VerifyEvent(event, "other_secret"))
	assert.False(t, VerifyEvent(event, ""))

	tampered := event
	tampered.Data.Transaction.Status = StatusDeclined
	assert.False(t, VerifyEvent(tampered, "events_secret"))
}
