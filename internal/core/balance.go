package core

// Delta returns the signed effect of a flow of the given amount on an
// account balance: positive for income, negative for expense. Apply and
// Reverse share this single formula so that a reversal is always the exact
// inverse of the original application.
func (t FlowType) Delta(m Money) int64 {
	if t == Income {
		return m.Cents
	}
	return -m.Cents
}

// Apply mutates the account balance by the transaction's effect. An expense
// that would drive the balance negative fails with ErrInsufficientBalance
// and leaves the balance untouched.
func (a *Account) Apply(t FlowType, m Money) error {
	d := t.Delta(m)
	if d < 0 && a.Balance.Cents+d < 0 {
		return ErrInsufficientBalance
	}
	a.Balance.Cents += d
	return nil
}

// Reverse undoes a previously applied effect. It never fails: restoring
// funds removed by an expense cannot underflow, and taking back income may
// legitimately leave the rest of the history to re-check on the following
// Apply. No sufficiency check happens here.
func (a *Account) Reverse(t FlowType, m Money) {
	a.Balance.Cents -= t.Delta(m)
}
