package domain

// NextStep resolves the step a container must show given the ledger state.
// Rules, evaluated in order until none applies:
//  1. an empty ledger forces CART;
//  2. SHIPPING, SUMMARY and PAYMENT require a payer, else AUTH;
//  3. SUMMARY requires shipping data, else SHIPPING;
//  4. STATUS requires a transaction, else PAYMENT.
//
// NextStep is pure and idempotent: NextStep(empty, c with NextStep(empty, c)) == NextStep(empty, c).
func NextStep(ledgerEmpty bool, c Container) Step {
	step := c.ActiveStep
	if step.index() < 0 {
		step = StepCart
	}

	for i := 0; i < len(steps); i++ {
		next := guard(ledgerEmpty, step, c)
		if next == step {
			return step
		}
		step = next
	}
	return step
}

func guard(ledgerEmpty bool, step Step, c Container) Step {
	switch {
	case ledgerEmpty && step != StepCart:
		return StepCart
	case (step == StepShipping || step == StepSummary || step == StepPayment) && c.Payer == nil:
		return StepAuth
	case step == StepSummary && c.ShippingData == nil:
		return StepShipping
	case step == StepStatus && c.TransactionID == "":
		return StepPayment
	}
	return step
}
