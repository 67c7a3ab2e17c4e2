// Package models defines the core domain models for Gather.
//
// # Model Overview
//
// The persisted graph mirrors how households plan shared events:
//   - Group: a circle of people (a family, a friend group) with Members
//   - Member: an adult participant in a Group, optionally partnered
//   - Child: a participant owned by one or more parent Members
//   - Event: a dated gathering owned by a Group, with feature flags
//   - Subgroup: a household unit attending an Event (adults + children,
//     with an "active" sub-selection of who is actually coming)
//   - PresenceRecord: per subgroup/date/meal-slot opt-in flag and headcount
//   - Proposal / Vote: competing venue candidates and signed votes on them
//   - AllocationSettings: per-event adult/child cost weights
//   - ExchangeRound / Assignment: a gift-exchange year and its giver->receiver pairs
//
// # Design Principles
//
// 1. **Avoid circular references**: relationships use ID strings, never pointers
// 2. **Computation stays out**: the calculator package owns all derived math;
//    models carry only persisted state
// 3. **Ownership is transitive**: Group owns Members/Events; Event owns
//    Subgroups/Proposals/PresenceRecords/AllocationSettings/ExchangeRounds.
//    Deleting an owner cascades in the store.
package models
