package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fleetsight/fleetsight/pkg/socrata"
	"github.com/fleetsight/fleetsight/pkg/store"
)

// Socrata resource ids on data.transportation.gov.
const (
	CensusResource     = "az4n-8mr2"
	CrashResource      = "aayw-vxb3"
	InspectionResource = "fx4q-ay7w"
)

// censusSelect is the fixed field list fetched for every census query.
const censusSelect = "dot_number,legal_name,dba_name,phy_street,phy_city,phy_state,phy_zip," +
	"phone,fax,cell_phone,company_officer_1,company_officer_2," +
	"status_code,prior_revoke_flag,prior_revoke_dot_number," +
	"add_date,power_units,total_drivers,fleetsize,docket1prefix,docket1"

// field coerces a row value to its string form; missing fields are "".
func field(r socrata.Row, keys ...string) string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s != "" {
			return s
		}
	}
	return ""
}

// safeInt64 coerces a numeric field; malformed or missing values are nil,
// never errors. Socrata serves numbers as strings, occasionally with a
// decimal part.
func safeInt64(r socrata.Row, keys ...string) *int64 {
	s := field(r, keys...)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int64(f)
	return &n
}

func safeInt(r socrata.Row, keys ...string) *int {
	n := safeInt64(r, keys...)
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func intOrZero(r socrata.Row, keys ...string) int {
	if n := safeInt(r, keys...); n != nil {
		return *n
	}
	return 0
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// safeDate parses the timestamp shapes Socrata serves; anything else is nil.
func safeDate(r socrata.Row, keys ...string) *time.Time {
	s := field(r, keys...)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}

// trunc caps a field at max bytes; empty values become nil.
func trunc(s string, max int) *string {
	if s == "" {
		return nil
	}
	if len(s) > max {
		s = s[:max]
	}
	return &s
}

func truncString(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// ParseCarrierRow coerces one census row; rows without a usable DOT number
// are skipped.
func ParseCarrierRow(r socrata.Row) (store.CarrierRow, bool) {
	dot := safeInt64(r, "dot_number")
	if dot == nil || *dot <= 0 {
		return store.CarrierRow{}, false
	}
	return store.CarrierRow{
		DOT:             *dot,
		LegalName:       truncString(field(r, "legal_name"), 500),
		DBAName:         trunc(field(r, "dba_name"), 500),
		PhyStreet:       trunc(field(r, "phy_street"), 500),
		PhyCity:         trunc(field(r, "phy_city"), 200),
		PhyState:        trunc(field(r, "phy_state"), 10),
		PhyZip:          trunc(field(r, "phy_zip"), 20),
		Phone:           trunc(field(r, "phone"), 30),
		Fax:             trunc(field(r, "fax"), 30),
		CellPhone:       trunc(field(r, "cell_phone"), 30),
		Officer1:        trunc(field(r, "company_officer_1"), 300),
		Officer2:        trunc(field(r, "company_officer_2"), 300),
		StatusCode:      trunc(field(r, "status_code"), 20),
		PriorRevokeFlag: trunc(field(r, "prior_revoke_flag"), 5),
		PriorRevokeDOT:  safeInt64(r, "prior_revoke_dot_number"),
		AddDate:         safeDate(r, "add_date"),
		PowerUnits:      safeInt(r, "power_units"),
		TotalDrivers:    safeInt(r, "total_drivers"),
		FleetSize:       trunc(field(r, "fleetsize"), 50),
		DocketPrefix:    trunc(field(r, "docket1prefix"), 10),
		DocketNumber:    trunc(field(r, "docket1"), 20),
	}, true
}

var towAwayTruthy = map[string]struct{}{
	"Y": {}, "YES": {}, "TRUE": {}, "1": {},
}

// ParseCrashRow coerces one crash row.
func ParseCrashRow(r socrata.Row) (store.CrashRow, bool) {
	dot := safeInt64(r, "dot_number")
	if dot == nil || *dot <= 0 {
		return store.CrashRow{}, false
	}
	_, towAway := towAwayTruthy[strings.ToUpper(field(r, "tow_away"))]
	return store.CrashRow{
		DOT:          *dot,
		ReportDate:   safeDate(r, "report_date"),
		ReportNumber: trunc(field(r, "report_number"), 100),
		State:        trunc(field(r, "report_state", "state"), 10),
		Fatalities:   intOrZero(r, "fatalities"),
		Injuries:     intOrZero(r, "injuries"),
		TowAway:      towAway,
	}, true
}

// ParseInspectionRow coerces one inspection row.
func ParseInspectionRow(r socrata.Row) (store.InspectionRow, bool) {
	dot := safeInt64(r, "dot_number")
	if dot == nil || *dot <= 0 {
		return store.InspectionRow{}, false
	}
	return store.InspectionRow{
		DOT:            *dot,
		InspectionDate: safeDate(r, "inspection_date", "insp_date"),
		VIN:            trunc(field(r, "vin"), 30),
		State:          trunc(field(r, "insp_state", "state"), 10),
		VehicleOOS:     intOrZero(r, "vehicle_oos_total", "veh_oos_total"),
		DriverOOS:      intOrZero(r, "driver_oos_total"),
	}, true
}
