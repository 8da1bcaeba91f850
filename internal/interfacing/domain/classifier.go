package interfacing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Bucket is a statement section.
type Bucket string

const (
	BucketClearing Bucket = "clearing"
	BucketBilling  Bucket = "billing"
)

// BreakdownGroup splits billing lines into sub-category groups.
type BreakdownGroup string

const (
	GroupOperational BreakdownGroup = "operational"
	GroupContractual BreakdownGroup = "contractual"
)

// ClassificationTable maps posting types to buckets and billing labels to breakdown groups.
type ClassificationTable struct {
	buckets     map[PostingType]Bucket
	contractual map[string]struct{}
}

// DefaultClassificationTable maps Clearing to clearing and invoices, credit notes and payments to billing.
func DefaultClassificationTable() ClassificationTable {
	return ClassificationTable{
		buckets: map[PostingType]Bucket{
			PostingClearing:   BucketClearing,
			PostingInvoice:    BucketBilling,
			PostingCreditNote: BucketBilling,
			PostingPayment:    BucketBilling,
		},
		contractual: map[string]struct{}{},
	}
}

// WithBucket returns a copy of the table with the posting type mapped.
func (t ClassificationTable) WithBucket(postingType PostingType, bucket Bucket) ClassificationTable {
	out := t.clone()
	out.buckets[postingType] = bucket
	return out
}

// WithContractual returns a copy of the table where the billing labels count as contractual.
func (t ClassificationTable) WithContractual(labels ...string) ClassificationTable {
	out := t.clone()
	for _, label := range labels {
		out.contractual[label] = struct{}{}
	}
	return out
}

// BucketOf returns the bucket of a posting type.
func (t ClassificationTable) BucketOf(postingType PostingType) (Bucket, bool) {
	bucket, ok := t.buckets[postingType]
	return bucket, ok
}

// GroupOf returns the breakdown group of a billing label.
func (t ClassificationTable) GroupOf(label string) BreakdownGroup {
	if _, ok := t.contractual[label]; ok {
		return GroupContractual
	}
	return GroupOperational
}

// PostingTypes lists the mapped posting types in name order.
func (t ClassificationTable) PostingTypes() []PostingType {
	types := make([]PostingType, 0, len(t.buckets))
	for pt := range t.buckets {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (t ClassificationTable) clone() ClassificationTable {
	out := ClassificationTable{
		buckets:     make(map[PostingType]Bucket, len(t.buckets)+1),
		contractual: make(map[string]struct{}, len(t.contractual)+1),
	}
	for k, v := range t.buckets {
		out.buckets[k] = v
	}
	for k := range t.contractual {
		out.contractual[k] = struct{}{}
	}
	return out
}

// Classification is the classifier output for one country and period.
type Classification struct {
	Clearing             []StatementLine
	ClearingSubtotal     decimal.Decimal
	Billing              []StatementLine
	BillingSubtotal      decimal.Decimal
	ClearingBreakdown    []BreakdownEntry
	OperationalBreakdown []BreakdownEntry
	ContractualBreakdown []BreakdownEntry
}

// TotalInterfacingDue is the sum of the rounded subtotals.
func (c Classification) TotalInterfacingDue() decimal.Decimal {
	return c.ClearingSubtotal.Add(c.BillingSubtotal)
}

// Classifier buckets ledger entries into statement sections.
type Classifier struct {
	table ClassificationTable
}

// NewClassifier constructs a classifier over a table.
func NewClassifier(table ClassificationTable) *Classifier {
	if table.buckets == nil {
		table = DefaultClassificationTable()
	}
	return &Classifier{table: table}
}

// Classify buckets entries in input order. Every entry must map to a bucket.
func (c *Classifier) Classify(entries []LedgerEntry) (Classification, error) {
	result := Classification{
		Clearing: []StatementLine{},
		Billing:  []StatementLine{},
	}
	clearing := newBreakdownAccumulator()
	operational := newBreakdownAccumulator()
	contractual := newBreakdownAccumulator()

	for _, entry := range entries {
		bucket, ok := c.table.BucketOf(entry.Type)
		if !ok {
			return Classification{}, fmt.Errorf("%w: %q (entry %s)", ErrUnmappedPostingType, entry.Type, entry.ID)
		}
		line := StatementLine{
			Type:        entry.Type,
			Label:       labelOf(entry),
			Description: entry.Description,
			Reference:   entry.Reference,
			Amount:      entry.Amount,
		}
		switch bucket {
		case BucketClearing:
			result.Clearing = append(result.Clearing, line)
			clearing.add(line.Label, line.Amount)
		case BucketBilling:
			if !entry.PostingDate.IsZero() {
				date := entry.PostingDate
				line.Date = &date
			}
			result.Billing = append(result.Billing, line)
			if c.table.GroupOf(line.Label) == GroupContractual {
				contractual.add(line.Label, line.Amount)
			} else {
				operational.add(line.Label, line.Amount)
			}
		default:
			return Classification{}, fmt.Errorf("%w: %q maps to unknown bucket %q", ErrUnmappedPostingType, entry.Type, bucket)
		}
	}

	result.ClearingSubtotal = RoundCents(SumLines(result.Clearing))
	result.BillingSubtotal = RoundCents(SumLines(result.Billing))
	result.ClearingBreakdown = clearing.entries()
	result.OperationalBreakdown = operational.entries()
	result.ContractualBreakdown = contractual.entries()
	return result, nil
}

func labelOf(entry LedgerEntry) string {
	if entry.SubType != "" {
		return entry.SubType
	}
	return string(entry.Type)
}

type breakdownAccumulator struct {
	order  []string
	totals map[string]decimal.Decimal
}

func newBreakdownAccumulator() *breakdownAccumulator {
	return &breakdownAccumulator{totals: make(map[string]decimal.Decimal)}
}

func (a *breakdownAccumulator) add(label string, amount decimal.Decimal) {
	current, ok := a.totals[label]
	if !ok {
		a.order = append(a.order, label)
	}
	a.totals[label] = current.Add(amount)
}

func (a *breakdownAccumulator) entries() []BreakdownEntry {
	out := make([]BreakdownEntry, 0, len(a.order))
	for _, label := range a.order {
		out = append(out, BreakdownEntry{Label: label, Amount: RoundCents(a.totals[label])})
	}
	return out
}
