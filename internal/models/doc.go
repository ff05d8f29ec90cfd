// Package models defines the domain models for shared-cost billing.
//
// # Upstream Models
//
// The following models are produced by the administrative subsystem and are
// only read by the allocation engine:
//   - Period: a billing cycle ordered by Seq
//   - Unit, UnitGroup, UnitGroupMember: the cost-bearing units and their groups
//   - BillingEntity, BillingEntityMember: who pays for which units
//   - ExpenseTargetSet, ExpenseTargetMember: fixed unit enumerations
//   - ExpenseType, AllocationRule, Expense, Measure
//
// # Engine-Owned Models
//
// These are created and replaced exclusively by the engine:
//   - WeightVector, WeightItem: the distribution used for an allocation
//   - AllocationLine: one allocated amount per (expense, unit)
//   - Bill, BillLine: per-billing-entity rollups of allocation lines
//
// # Design Principles
//
// 1. **Sequence over time**: membership is decided by Period.Seq, never by dates
// 2. **Exact money**: amounts are decimal.Decimal, never float64
// 3. **IDs, not pointers**: relationships are expressed by ID strings
package models
