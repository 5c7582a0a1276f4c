// Package optimistic applies toggle-style user actions (like, save, follow)
// to loaded entities before the server confirms them.
//
// Each entity+field pair runs a small state machine:
//
//	Idle -> Pending -> Confirmed
//	                -> Reverted
//
// Begin flips the field on the loaded entity right away (and moves any
// dependent counter by +1/-1), then the caller submits the action. Settle
// takes the result: success keeps the optimistic value, failure restores the
// previous value and undoes the counter delta (the delta is inverted, not
// recomputed, since other mutations may have moved the counter meanwhile).
//
// Toggling again while a request is pending supersedes it. A result is only
// applied when its intent is still the latest for that entity+field and the
// entity still shows the value the intent was sent for; anything else is
// reported as OutcomeSuperseded and leaves the entity alone. When the latest
// of several overlapping toggles fails, the field goes back to the last value
// the server confirmed, not to the value an earlier pending toggle showed.
//
// A result for an entity that is no longer loaded, or for a list that was
// closed, is OutcomeDropped and is not reported to OnSettle.
package optimistic
