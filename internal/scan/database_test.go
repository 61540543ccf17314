package scan

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/grocerwatch/grocerwatch/internal/parsing"
)

var _ = Describe("BoltDB", func() {
	var db *BoltDB

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("SaveScan and GetScan", func() {
		var record *Record

		BeforeEach(func() {
			record = &Record{
				ID:        "scan-1",
				StoreName: "Kin's Market",
				StoreType: parsing.StoreTypeLocalGem,
				RawText:   "KIN'S MARKET\nMILK 2% 4.99",
				Items: []parsing.ParsedLineItem{
					{ItemName: "MILK 2%", Price: 4.99, Quantity: 1},
				},
				CreditAward: CreditsLocalGem,
				CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
				UpdatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			}
			Expect(db.SaveScan(record)).To(Succeed())
		})

		It("round-trips the record", func() {
			loaded, err := db.GetScan("scan-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(record))
		})

		It("returns an error for an unknown ID", func() {
			_, err := db.GetScan("missing")
			Expect(err).To(HaveOccurred())
		})

		It("overwrites on repeat save", func() {
			record.StoreName = "Aria"
			Expect(db.SaveScan(record)).To(Succeed())

			loaded, err := db.GetScan("scan-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.StoreName).To(Equal("Aria"))
		})
	})

	Describe("ListScans", func() {
		It("returns an empty slice when nothing is saved", func() {
			records, err := db.ListScans()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).NotTo(BeNil())
			Expect(records).To(BeEmpty())
		})

		It("returns every saved scan", func() {
			Expect(db.SaveScan(&Record{ID: "a"})).To(Succeed())
			Expect(db.SaveScan(&Record{ID: "b"})).To(Succeed())

			records, err := db.ListScans()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})
	})

	Describe("DeleteScan", func() {
		BeforeEach(func() {
			Expect(db.SaveScan(&Record{ID: "scan-1"})).To(Succeed())
			Expect(db.SavePriceRows("scan-1", []PriceRow{{ItemName: "MILK", Price: 4.99}})).To(Succeed())
		})

		It("removes the scan and its price rows", func() {
			Expect(db.DeleteScan("scan-1")).To(Succeed())

			_, err := db.GetScan("scan-1")
			Expect(err).To(HaveOccurred())

			rows, err := db.GetPriceRows("scan-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})

	Describe("SavePriceRows and GetPriceRows", func() {
		var rows []PriceRow

		BeforeEach(func() {
			rows = []PriceRow{
				{ItemName: "MILK 2%", Price: 4.99, StoreName: "Kin's Market", ReceiptScanID: "scan-1"},
				{ItemName: "BREAD", Price: 2.98, Unit: "2 units", ReceiptScanID: "scan-1"},
			}
			Expect(db.SavePriceRows("scan-1", rows)).To(Succeed())
		})

		It("round-trips the rows in order", func() {
			loaded, err := db.GetPriceRows("scan-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(rows))
		})

		It("returns an empty slice for a scan with no rows", func() {
			loaded, err := db.GetPriceRows("other-scan")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})
	})
})
