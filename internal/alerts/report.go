// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package alerts

import (
	"sort"
	"time"

	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/geo"
)

// OpenWater is the zone name used for alerts outside every named zone.
const OpenWater = "open water"

// DefaultTopVessels is the ranking length used when Report gets zero.
const DefaultTopVessels = 5

// ZoneNamer names the zone containing a point.
type ZoneNamer interface {
	ZoneAt(p geo.Point) (string, bool)
}

// WithZoneNamer lets Report break alerts down by zone.
func WithZoneNamer(zones ZoneNamer) Option {
	return func(c *Correlator) { c.zones = zones }
}

// RiskLevel is the coarse rating shown next to a ranked vessel.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func riskOf(s Severity) RiskLevel {
	switch {
	case s.Rank() >= SeverityHigh.Rank():
		return RiskHigh
	case s == SeverityMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DailyRisk counts the alerts created on one UTC day. Incidents are the
// subset at high or critical severity.
type DailyRisk struct {
	Date      string `json:"date"`
	Risks     int    `json:"risks"`
	Incidents int    `json:"incidents"`
}

// VesselRank is one entry of the most-alerted vessel ranking.
type VesselRank struct {
	VesselID string    `json:"vesselId"`
	Name     string    `json:"name,omitempty"`
	Alerts   int       `json:"alerts"`
	Risk     RiskLevel `json:"risk"`
}

// ZoneRisk counts alerts and distinct vessels per zone.
type ZoneRisk struct {
	Zone    string `json:"zone"`
	Risks   int    `json:"risks"`
	Vessels int    `json:"vessels"`
}

// Report is the period summary behind the reports view.
type Report struct {
	From       time.Time              `json:"from"`
	To         time.Time              `json:"to"`
	Total      int                    `json:"total"`
	Daily      []DailyRisk            `json:"daily"`
	ByKind     map[detection.Kind]int `json:"byKind"`
	TopVessels []VesselRank           `json:"topVessels"`
	Zones      []ZoneRisk             `json:"zones"`
}

type vesselTally struct {
	alerts int
	worst  Severity
}

// Report summarises the alerts created in (now-period, now]. Daily
// buckets cover every UTC day the window touches, oldest first, empty
// days included. top bounds the vessel ranking.
func (c *Correlator) Report(now time.Time, period time.Duration, top int) Report {
	if top <= 0 {
		top = DefaultTopVessels
	}
	now = now.UTC()
	from := now.Add(-period)

	rep := Report{
		From:   from,
		To:     now,
		ByKind: make(map[detection.Kind]int, len(detection.AllKinds)),
	}
	for _, k := range detection.AllKinds {
		rep.ByKind[k] = 0
	}

	dayIndex := make(map[string]int)
	for day := truncateDay(from); !day.After(now); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		dayIndex[key] = len(rep.Daily)
		rep.Daily = append(rep.Daily, DailyRisk{Date: key})
	}

	vessels := make(map[string]*vesselTally)
	zoneRisks := make(map[string]int)
	zoneVessels := make(map[string]map[string]struct{})

	c.mu.RLock()
	for _, a := range c.alerts {
		if !a.CreatedAt.After(from) || a.CreatedAt.After(now) {
			continue
		}
		rep.Total++
		rep.ByKind[a.Kind]++

		d := &rep.Daily[dayIndex[a.CreatedAt.UTC().Format(time.DateOnly)]]
		d.Risks++
		if a.Severity.Rank() >= SeverityHigh.Rank() {
			d.Incidents++
		}

		v := vessels[a.VesselID]
		if v == nil {
			v = &vesselTally{}
			vessels[a.VesselID] = v
		}
		v.alerts++
		if a.Severity.Rank() > v.worst.Rank() {
			v.worst = a.Severity
		}

		zone := c.zoneOf(a)
		zoneRisks[zone]++
		if zoneVessels[zone] == nil {
			zoneVessels[zone] = make(map[string]struct{})
		}
		zoneVessels[zone][a.VesselID] = struct{}{}
	}
	c.mu.RUnlock()

	for id, v := range vessels {
		rep.TopVessels = append(rep.TopVessels, VesselRank{VesselID: id, Alerts: v.alerts, Risk: riskOf(v.worst)})
	}
	sort.Slice(rep.TopVessels, func(i, j int) bool {
		a, b := rep.TopVessels[i], rep.TopVessels[j]
		if a.Alerts != b.Alerts {
			return a.Alerts > b.Alerts
		}
		return a.VesselID < b.VesselID
	})
	if len(rep.TopVessels) > top {
		rep.TopVessels = rep.TopVessels[:top]
	}

	for zone, n := range zoneRisks {
		rep.Zones = append(rep.Zones, ZoneRisk{Zone: zone, Risks: n, Vessels: len(zoneVessels[zone])})
	}
	sort.Slice(rep.Zones, func(i, j int) bool {
		if rep.Zones[i].Risks != rep.Zones[j].Risks {
			return rep.Zones[i].Risks > rep.Zones[j].Risks
		}
		return rep.Zones[i].Zone < rep.Zones[j].Zone
	})
	return rep
}

func (c *Correlator) zoneOf(a *Alert) string {
	if c.zones == nil || a.Position == nil {
		return OpenWater
	}
	if name, ok := c.zones.ZoneAt(*a.Position); ok && name != "" {
		return name
	}
	return OpenWater
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
