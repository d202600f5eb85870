package events

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/zerr"
)

// Kind is the element name of an event record.
type Kind string

const (
	// KindComp is a compute event.
	KindComp Kind = "comp"
	// KindComm is a transfer event.
	KindComm Kind = "comm"
	// KindColl is a collective event.
	KindColl Kind = "coll"
)

// Record is one parsed event.
type Record struct {
	Kind  Kind
	ID    uint64
	Deps  []uint64
	Epoch uint64

	// Rank and Seconds are set on compute events, Note when notes were enabled.
	Rank    domain.Rank
	Seconds float64
	Note    string

	// From and To are set on transfer events.
	From domain.Rank
	To   domain.Rank

	// Team is set on collective events.
	Team []domain.Rank

	// Size is set on transfer and collective events.
	Size uint64
}

// ReadFile parses an event trace.
func ReadFile(r io.Reader) ([]Record, error) {
	dec := xml.NewDecoder(r)
	var out []Record
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, errors.Join(domain.ErrEventParseFailed, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		kind := Kind(start.Name.Local)
		switch kind {
		case KindComp, KindComm, KindColl:
		default:
			continue
		}

		rec, err := parseRecord(kind, start.Attr)
		if err != nil {
			line, _ := dec.InputPos()
			return nil, zerr.With(errors.Join(domain.ErrEventParseFailed, err), "line", line)
		}
		out = append(out, rec)
	}
}

// VerifyRecords runs the trace checks over parsed records in file order.
func VerifyRecords(recs []Record) VerifyReport {
	v := NewVerifier()
	for _, r := range recs {
		v.Define(r.ID, r.Deps)
	}
	return v.Verify()
}

func parseRecord(kind Kind, attrs []xml.Attr) (Record, error) {
	rec := Record{Kind: kind}
	var err error
	for _, a := range attrs {
		switch a.Name.Local {
		case "id":
			rec.ID, err = parseID(a.Value)
		case "dep":
			rec.Deps, err = parseIDs(a.Value)
		case "epoch":
			rec.Epoch, err = strconv.ParseUint(a.Value, 10, 64)
		case "at":
			rec.Rank, err = parseRank(a.Value)
		case "time":
			rec.Seconds, err = strconv.ParseFloat(a.Value, 64)
		case "note":
			rec.Note = a.Value
		case "from":
			rec.From, err = parseRank(a.Value)
		case "to":
			rec.To, err = parseRank(a.Value)
		case "size":
			rec.Size, err = strconv.ParseUint(a.Value, 10, 64)
		case "team":
			rec.Team, err = parseTeam(a.Value)
		}
		if err != nil {
			return Record{}, zerr.With(err, "attr", a.Name.Local)
		}
	}
	return rec, nil
}

func parseID(s string) (uint64, error) {
	if !strings.HasPrefix(s, "e") {
		return 0, zerr.With(domain.ErrEventParseFailed, "id", s)
	}
	return strconv.ParseUint(s[1:], 10, 64)
}

func parseIDs(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]uint64, len(parts))
	for i, p := range parts {
		id, err := parseID(p)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func parseRank(s string) (domain.Rank, error) {
	n, err := strconv.Atoi(s)
	return domain.Rank(n), err
}

func parseTeam(s string) ([]domain.Rank, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	team := make([]domain.Rank, len(parts))
	for i, p := range parts {
		r, err := parseRank(p)
		if err != nil {
			return nil, err
		}
		team[i] = r
	}
	return team, nil
}
