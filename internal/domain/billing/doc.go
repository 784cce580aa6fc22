// Package billing holds the invoicing core: the billing-cycle calculator,
// invoice numbering and status rules, payment application, orders and
// recurring subscriptions.
//
// Invoice status machine:
//
//	DRAFT ──send──▶ SENT ──due date passed──▶ OVERDUE
//	  │               │                          │
//	  │               └─────────paid────────▶ PAID ◀── paid
//	  ├─────────paid─────────────────────────▶ PAID
//	  └──cancel──▶ CANCELLED ◀──cancel── SENT
//
// PAID and CANCELLED are terminal. PAID is only entered when the cumulative
// payments reach the invoice amount.
//
// Subscription status machine:
//
//	ACTIVE ⇄ PAUSED, ACTIVE/PAUSED → PAID_IN_ADVANCE → ACTIVE,
//	any non-terminal → CANCELLED (terminal).
package billing
