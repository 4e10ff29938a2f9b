// Package propsheet turns third-party real-estate listing pages into a
// canonical property record and a storage-hosted image gallery, gated by a
// per-account credit balance.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, rod/).
package propsheet
