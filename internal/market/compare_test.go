package market

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/grocerwatch/grocerwatch/internal/parsing"
)

// stubSource is a canned PriceSource for engine tests
type stubSource struct {
	prices map[string]float64
	err    error
	calls  []string
}

func (s *stubSource) Lookup(_ context.Context, itemName string, _ float64) (*CompetitorPrice, error) {
	s.calls = append(s.calls, itemName)
	if s.err != nil {
		return nil, s.err
	}
	price, ok := s.prices[itemName]
	if !ok {
		return nil, nil
	}
	return &CompetitorPrice{Price: price, Store: "Superstore"}, nil
}

var _ = Describe("Compare", func() {
	var (
		items       []parsing.ParsedLineItem
		source      *stubSource
		comparisons []PriceComparison
	)

	BeforeEach(func() {
		source = &stubSource{prices: map[string]float64{}}
	})

	JustBeforeEach(func() {
		comparisons = Compare(context.Background(), items, source)
	})

	When("the competitor is cheaper", func() {
		BeforeEach(func() {
			items = []parsing.ParsedLineItem{{ItemName: "CHEESE", Price: 6.50, Quantity: 1}}
			source.prices["CHEESE"] = 5.00
		})

		It("computes the receipt price from price and quantity", func() {
			Expect(comparisons).To(HaveLen(1))
			Expect(comparisons[0].ReceiptPrice).To(Equal(6.50))
		})

		It("computes the savings rounded to cents", func() {
			Expect(comparisons[0].Savings).To(Equal(1.50))
		})

		It("reports the markup over market", func() {
			pct, ok := comparisons[0].OverMarketPercent()
			Expect(ok).To(BeTrue())
			Expect(pct).To(BeNumerically("~", 0.30, 1e-9))
		})

		It("also flags the line questionable; the signals are not exclusive", func() {
			Expect(comparisons[0].Questionable()).To(BeTrue())
			Expect(comparisons[0].Savings).To(BeNumerically(">", 0))
		})
	})

	When("the markup is below the advocacy threshold", func() {
		BeforeEach(func() {
			items = []parsing.ParsedLineItem{{ItemName: "MILK", Price: 4.99, Quantity: 1}}
			source.prices["MILK"] = 4.49
		})

		It("keeps the savings", func() {
			Expect(comparisons[0].Savings).To(Equal(0.50))
		})

		It("does not flag the line questionable", func() {
			Expect(comparisons[0].Questionable()).To(BeFalse())
		})
	})

	When("quantity is greater than one", func() {
		BeforeEach(func() {
			items = []parsing.ParsedLineItem{{ItemName: "BREAD", Price: 1.49, Quantity: 2}}
			source.prices["BREAD"] = 2.49
		})

		It("compares against the full line price", func() {
			Expect(comparisons[0].ReceiptPrice).To(Equal(2.98))
			Expect(comparisons[0].Savings).To(Equal(0.49))
		})
	})

	When("the competitor is more expensive", func() {
		BeforeEach(func() {
			items = []parsing.ParsedLineItem{{ItemName: "RICE", Price: 3.99, Quantity: 1}}
			source.prices["RICE"] = 4.99
		})

		It("records the competitor price with zero savings", func() {
			Expect(comparisons[0].CompetitorPrice).NotTo(BeNil())
			Expect(*comparisons[0].CompetitorPrice).To(Equal(4.99))
			Expect(comparisons[0].Savings).To(BeZero())
		})

		It("does not flag the line questionable", func() {
			Expect(comparisons[0].Questionable()).To(BeFalse())
		})
	})

	When("the source has no price for an item", func() {
		BeforeEach(func() {
			items = []parsing.ParsedLineItem{{ItemName: "DRAGONFRUIT", Price: 7.99, Quantity: 1}}
		})

		It("records no competitor price and zero savings", func() {
			Expect(comparisons[0].CompetitorPrice).To(BeNil())
			Expect(comparisons[0].Savings).To(BeZero())
		})

		It("has no defined markup", func() {
			_, ok := comparisons[0].OverMarketPercent()
			Expect(ok).To(BeFalse())
		})
	})

	When("the source fails", func() {
		BeforeEach(func() {
			items = []parsing.ParsedLineItem{
				{ItemName: "MILK", Price: 4.99, Quantity: 1},
				{ItemName: "EGGS", Price: 3.99, Quantity: 1},
			}
			source.err = errors.New("network down")
		})

		It("degrades every lookup to no competitor price instead of aborting", func() {
			Expect(comparisons).To(HaveLen(2))
			Expect(comparisons[0].CompetitorPrice).To(BeNil())
			Expect(comparisons[1].CompetitorPrice).To(BeNil())
		})
	})

	When("several items are compared", func() {
		BeforeEach(func() {
			items = []parsing.ParsedLineItem{
				{ItemName: "MILK", Price: 4.99, Quantity: 1},
				{ItemName: "BREAD", Price: 2.49, Quantity: 1},
				{ItemName: "EGGS", Price: 3.99, Quantity: 1},
			}
		})

		It("looks items up one at a time, in order", func() {
			Expect(source.calls).To(Equal([]string{"MILK", "BREAD", "EGGS"}))
		})

		It("preserves item order in the output", func() {
			Expect(comparisons[0].ItemName).To(Equal("MILK"))
			Expect(comparisons[1].ItemName).To(Equal("BREAD"))
			Expect(comparisons[2].ItemName).To(Equal("EGGS"))
		})
	})

	When("there are no items", func() {
		BeforeEach(func() {
			items = nil
		})

		It("returns an empty, non-nil slice", func() {
			Expect(comparisons).NotTo(BeNil())
			Expect(comparisons).To(BeEmpty())
		})
	})
})
