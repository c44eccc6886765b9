package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// RateCell is one premium entry of a rate table. The backend sends either
// a bare premium ("750.00" or 750) or a [premium, limitClaimId] pair.
type RateCell struct {
	Premium      string
	LimitClaimID string
}

func (c RateCell) MarshalJSON() ([]byte, error) {
	if c.LimitClaimID != "" {
		return json.Marshal([]string{c.Premium, c.LimitClaimID})
	}
	return json.Marshal(c.Premium)
}

func (c *RateCell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = RateCell{}
		return nil
	}
	if data[0] == '[' {
		var pair []json.RawMessage
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		*c = RateCell{}
		if len(pair) > 0 {
			c.Premium = scalarString(pair[0])
		}
		if len(pair) > 1 {
			c.LimitClaimID = scalarString(pair[1])
		}
		return nil
	}
	*c = RateCell{Premium: scalarString(data)}
	return nil
}

// scalarString renders a JSON string or number as text.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// RateTable maps deductible -> coverage limit -> premium cell.
type RateTable map[string]map[string]RateCell

// UnmarshalJSON accepts both an object and the single-element array some
// endpoints wrap the table in.
func (t *RateTable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '[' {
		var tables []map[string]map[string]RateCell
		if err := json.Unmarshal(data, &tables); err != nil {
			return err
		}
		if len(tables) == 0 {
			*t = nil
			return nil
		}
		*t = tables[0]
		return nil
	}
	var m map[string]map[string]RateCell
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = m
	return nil
}

// IsMultiDeductible reports whether the table is a deductible x limit matrix.
func (t RateTable) IsMultiDeductible() bool {
	return len(t) > 1
}

// Deductibles returns the table deductibles in numeric order.
func (t RateTable) Deductibles() []string {
	keys := make([]string, 0, len(t))
	for d := range t {
		keys = append(keys, d)
	}
	sortNumeric(keys)
	return keys
}

// Limits returns the limits offered under a deductible in numeric order.
func (t RateTable) Limits(deductible string) []string {
	row := t[deductible]
	keys := make([]string, 0, len(row))
	for l := range row {
		keys = append(keys, l)
	}
	sortNumeric(keys)
	return keys
}

// Cell returns a selectable coverage cell.
type Cell struct {
	Table        string `json:"table"`
	Deductible   string `json:"deductible"`
	Limit        string `json:"limit"`
	Premium      string `json:"premium"`
	LimitClaimID string `json:"limit_claim_id"`
	Key          string `json:"key"`
}

// Cells enumerates every cell of the table, row by row. When excludeZero is
// set the "0" deductible row is skipped, as two-year terms do not offer it.
func (t RateTable) Cells(tableName string, excludeZero bool) []Cell {
	var cells []Cell
	for _, d := range t.Deductibles() {
		if excludeZero && d == "0" {
			continue
		}
		for _, l := range t.Limits(d) {
			rc := t[d][l]
			claimID := rc.LimitClaimID
			if claimID == "" {
				claimID = DefaultLimitClaimID(d, l)
			}
			cells = append(cells, Cell{
				Table:        tableName,
				Deductible:   d,
				Limit:        l,
				Premium:      rc.Premium,
				LimitClaimID: claimID,
				Key:          fmt.Sprintf("%s-%s-%s-%s-%s", tableName, l, d, rc.Premium, claimID),
			})
		}
	}
	return cells
}

// DefaultLimitClaimID is the id used when a cell does not carry one.
func DefaultLimitClaimID(deductible, limit string) string {
	return deductible + "," + limit
}

func sortNumeric(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.ParseFloat(keys[i], 64)
		b, errB := strconv.ParseFloat(keys[j], 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}

// Rates carries the rate tables of a quote. RAS and renewals use
// table_rate; RAP new business splits into table1_rate and table2_rate.
type Rates struct {
	TableRate  RateTable `json:"table_rate,omitempty"`
	Table1Rate RateTable `json:"table1_rate,omitempty"`
	Table2Rate RateTable `json:"table2_rate,omitempty"`
	OneYear    *Rates    `json:"one_year,omitempty"`
}

// Empty reports whether no table is present at any level.
func (r Rates) Empty() bool {
	if len(r.TableRate) > 0 || len(r.Table1Rate) > 0 || len(r.Table2Rate) > 0 {
		return false
	}
	return r.OneYear == nil || r.OneYear.Empty()
}

// flat returns the level that actually holds tables.
func (r Rates) flat() Rates {
	if len(r.TableRate) == 0 && len(r.Table1Rate) == 0 && len(r.Table2Rate) == 0 && r.OneYear != nil {
		return r.OneYear.flat()
	}
	return r
}

// Table selects the table shown to the applicant. A combined table_rate
// wins; otherwise RAP answers 5, 6 and 7 all true select table 2.
func (r Rates) Table(answers Answers) (string, RateTable) {
	f := r.flat()
	if len(f.TableRate) > 0 {
		return "Coverage Options", f.TableRate
	}
	if answers.UsesSecondTable() && len(f.Table2Rate) > 0 {
		return "Table2", f.Table2Rate
	}
	return "Table1", f.Table1Rate
}

// TaxFees is the state tax and fee schedule attached to a quote. Amounts
// arrive as strings or numbers.
type TaxFees struct {
	Tax                       Text `json:"tax"`
	StampingFee               Text `json:"stamping_fee,omitempty"`
	TaxWEF                    Text `json:"tax_w_e_f,omitempty"`
	EffectiveDate             Text `json:"effective_date,omitempty"`
	EffectiveEndDate          Text `json:"effective_end_date,omitempty"`
	FraudWarning              Text `json:"fraud_warning,omitempty"`
	AdditionalInstructions    Text `json:"additional_instructions,omitempty"`
	AdditionalInstructionsWEF Text `json:"additional_instructions_w_e_f,omitempty"`
	ConvenienceFees           Text `json:"convenience_fees,omitempty"`
	LicenseNo                 Text `json:"license_no,omitempty"`
}
