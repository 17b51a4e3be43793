package evidence

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// PairingLogNormalizer reads Zigbee pairing and event logs captured on the
// local installation. A log may cover several devices; each interview
// ("manufacturerName=... modelId=...") starts a new record.
//
//	2025-03-02T10:11:12Z interview manufacturerName=_TZE284_aao6qtcs modelId=TS0601 swBuildId=1.0.3
//	2025-03-02T10:11:20Z dp=1 value=100 capability=windowcoverings_set parser=divide_by_100
//	2025-03-02T10:11:25Z cluster=genOnOff attr=onOff capability=onoff
type PairingLogNormalizer struct{}

var (
	logTimestamp    = regexp.MustCompile(`^\s*\[?(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)`)
	logManufacturer = regexp.MustCompile(`manufacturerName["']?\s*[=:]\s*["']?([^\s"',}]+)`)
	logModel        = regexp.MustCompile(`modelId["']?\s*[=:]\s*["']?([^\s"',}]+)`)
	logFirmware     = regexp.MustCompile(`(?:swBuildId|softwareBuildID|firmware)["']?\s*[=:]\s*["']?([^\s"',}]+)`)
	logDatapoint    = regexp.MustCompile(`\bdp\s*[=:]\s*(\d+)\b`)
	logCluster      = regexp.MustCompile(`\bcluster\s*[=:]\s*["']?([A-Za-z0-9_]+)`)
	logCapability   = regexp.MustCompile(`\bcapability\s*[=:]\s*["']?([a-z_]+)`)
	logParser       = regexp.MustCompile(`\bparser\s*[=:]\s*["']?([a-z0-9_]+)`)
)

// Name implements Normalizer.
func (*PairingLogNormalizer) Name() string { return "pairing_log" }

// CanHandle accepts log hints and content carrying an interview line.
func (*PairingLogNormalizer) CanHandle(doc Document) bool {
	if doc.format() == "log" {
		return true
	}
	return logManufacturer.Match(doc.Content) && logModel.Match(doc.Content)
}

type logSection struct {
	id     device.Identity
	hasID  bool
	lines  []string
	latest time.Time
	claim  Claim
}

// Normalize implements Normalizer. Lines before the first interview belong
// to doc.Device when it is set and are dropped otherwise.
func (*PairingLogNormalizer) Normalize(ctx context.Context, doc Document) ([]Evidence, error) {
	domain := doc.Domain
	if domain == "" {
		domain = DomainLocalPairingLog
	}

	var sections []*logSection
	current := &logSection{}
	if doc.Device != nil {
		current.id = doc.Device.Normalise()
		current.hasID = true
	}

	sc := bufio.NewScanner(bytes.NewReader(doc.Content))
	sc.Buffer(make([]byte, 0, 64*1024), maxRawTextBytes)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if vendor, product, ok := interview(line); ok {
			if current.hasID && len(current.lines) > 0 {
				sections = append(sections, current)
			}
			fw := ""
			if m := logFirmware.FindStringSubmatch(line); m != nil {
				fw = m[1]
			}
			current = &logSection{id: device.NewIdentity(vendor, product, fw), hasID: true}
		}

		current.lines = append(current.lines, line)
		if m := logTimestamp.FindStringSubmatch(line); m != nil {
			if ts, err := ParseTimestamp(strings.Replace(m[1], " ", "T", 1)); err == nil && ts.After(current.latest) {
				current.latest = ts
			}
		}
		current.addMapping(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if current.hasID && len(current.lines) > 0 {
		sections = append(sections, current)
	}

	out := make([]Evidence, 0, len(sections))
	for _, s := range sections {
		e := Evidence{
			Device:     s.id,
			Domain:     domain,
			Origin:     doc.origin(),
			ObservedAt: s.latest,
			RawText:    strings.Join(s.lines, "\n"),
		}
		if e.ObservedAt.IsZero() {
			e.ObservedAt = doc.ObservedAt
		}
		if !s.claim.Empty() {
			c := s.claim
			e.Claim = &c
		}
		out = append(out, e)
	}
	return out, nil
}

func interview(line string) (vendor, product string, ok bool) {
	mv := logManufacturer.FindStringSubmatch(line)
	mp := logModel.FindStringSubmatch(line)
	if mv == nil || mp == nil {
		return "", "", false
	}
	return mv[1], mp[1], true
}

// addMapping records "dp=N ... capability=X" and "cluster=C ... capability=X"
// lines. The last line for a given primitive wins.
func (s *logSection) addMapping(line string) {
	cm := logCapability.FindStringSubmatch(line)
	if cm == nil {
		return
	}
	m := Mapping{Capability: device.Capability(cm[1])}
	if pm := logParser.FindStringSubmatch(line); pm != nil {
		m.Parser = device.ValueParser(pm[1])
	}

	if dm := logDatapoint.FindStringSubmatch(line); dm != nil {
		dp, err := device.ParseDatapoint(dm[1])
		if err != nil {
			return
		}
		if s.claim.Datapoints == nil {
			s.claim.Datapoints = make(map[int]Mapping)
		}
		s.claim.Datapoints[dp] = m
		return
	}
	if cl := logCluster.FindStringSubmatch(line); cl != nil {
		if s.claim.Clusters == nil {
			s.claim.Clusters = make(map[string]Mapping)
		}
		s.claim.Clusters[cl[1]] = m
	}
}
