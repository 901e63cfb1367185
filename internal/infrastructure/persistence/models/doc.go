// Package models contains GORM persistence models that map to database tables.
// Domain types carry no ORM concerns; each model converts with ToDomain and a
// FromDomain constructor.
//
// Tables:
//   - owners: owner directory (read-only here)
//   - finance_entries: income, expense and commission records (read-only here)
//   - payout_requests: the payout ledger
package models
