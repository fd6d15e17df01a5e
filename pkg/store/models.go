package store

import "time"

// CarrierRow is one census row bound for the FmcsaCarrier table. Optional
// fields are nil when the source omitted or mangled them.
type CarrierRow struct {
	DOT             int64
	LegalName       string
	DBAName         *string
	PhyStreet       *string
	PhyCity         *string
	PhyState        *string
	PhyZip          *string
	Phone           *string
	Fax             *string
	CellPhone       *string
	Officer1        *string
	Officer2        *string
	StatusCode      *string
	PriorRevokeFlag *string
	PriorRevokeDOT  *int64
	AddDate         *time.Time
	PowerUnits      *int
	TotalDrivers    *int
	FleetSize       *string
	DocketPrefix    *string
	DocketNumber    *string
}

// CrashRow is one crash record bound for the FmcsaCrash table.
type CrashRow struct {
	DOT          int64
	ReportDate   *time.Time
	ReportNumber *string
	State        *string
	Fatalities   int
	Injuries     int
	TowAway      bool
}

// InspectionRow is one inspection record bound for the FmcsaInspection table.
type InspectionRow struct {
	DOT            int64
	InspectionDate *time.Time
	VIN            *string
	State          *string
	VehicleOOS     int
	DriverOOS      int
}

// SeedIdentifiers carries the expansion identifiers read back for the seed
// carriers: raw phone strings, physical address triples, and officer names.
type SeedIdentifiers struct {
	Phones    []string
	Addresses []AddressTriple
	Officers  []string
}

// AddressTriple is an uppercased street/city/state key used in expansion
// predicates.
type AddressTriple struct {
	Street string
	City   string
	State  string
}

// SyncRun statuses.
const (
	SyncStatusRunning = "running"
	SyncStatusDone    = "done"
	SyncStatusFailed  = "failed"
)
