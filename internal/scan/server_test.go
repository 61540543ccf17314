package scan

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/grocerwatch/grocerwatch/internal/market"
)

var _ = Describe("Server", func() {
	var (
		db       *mockDB
		source   *mockSource
		service  *Service
		server   *Server
		recorder *httptest.ResponseRecorder
		request  *http.Request
	)

	BeforeEach(func() {
		db = newMockDB()
		source = &mockSource{prices: map[string]float64{"MILK 2%": 4.49}}
		service = NewServiceWithDeps(
			db,
			&mockTranscriber{transcript: "KIN'S MARKET\nMILK 2% 4.99"},
			source,
			&mockIDGenerator{id: "scan-1"},
			&mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		)
		server = NewServer(service, BasicAuth{})
		recorder = httptest.NewRecorder()
	})

	JustBeforeEach(func() {
		server.ServeHTTP(recorder, request)
	})

	Describe("POST /api/scans", func() {
		When("the body is a JSON transcript", func() {
			BeforeEach(func() {
				body := `{"text": "KIN'S MARKET\nMILK 2% 4.99\nTOTAL 4.99"}`
				request = httptest.NewRequest("POST", "/api/scans", strings.NewReader(body))
				request.Header.Set("Content-Type", "application/json")
			})

			It("responds 201", func() {
				Expect(recorder.Code).To(Equal(http.StatusCreated))
			})

			It("returns the processed record", func() {
				var record Record
				Expect(json.Unmarshal(recorder.Body.Bytes(), &record)).To(Succeed())
				Expect(record.ID).To(Equal("scan-1"))
				Expect(record.StoreName).To(Equal("Kin's Market"))
				Expect(record.Items).To(HaveLen(1))
				Expect(record.Comparisons).To(HaveLen(1))
				Expect(record.Comparisons[0].Savings).To(Equal(0.50))
			})

			It("persists the scan", func() {
				Expect(db.scans).To(HaveKey("scan-1"))
			})
		})

		When("the body is a plain text transcript", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("POST", "/api/scans", strings.NewReader("MILK 2% 4.99"))
				request.Header.Set("Content-Type", "text/plain")
			})

			It("responds 201", func() {
				Expect(recorder.Code).To(Equal(http.StatusCreated))
			})
		})

		When("the JSON body has no transcript", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("POST", "/api/scans", strings.NewReader(`{"text": "  "}`))
				request.Header.Set("Content-Type", "application/json")
			})

			It("responds 400", func() {
				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})

		When("the plain text body is empty", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("POST", "/api/scans", strings.NewReader(""))
				request.Header.Set("Content-Type", "text/plain")
			})

			It("responds 400", func() {
				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("GET /api/scans", func() {
		BeforeEach(func() {
			db.scans["a"] = &Record{ID: "a"}
			db.scans["b"] = &Record{ID: "b"}
			request = httptest.NewRequest("GET", "/api/scans", nil)
		})

		It("responds 200 with all scans", func() {
			Expect(recorder.Code).To(Equal(http.StatusOK))

			var records []Record
			Expect(json.Unmarshal(recorder.Body.Bytes(), &records)).To(Succeed())
			Expect(records).To(HaveLen(2))
		})
	})

	Describe("GET /api/scans/{id}", func() {
		When("the scan exists", func() {
			BeforeEach(func() {
				db.scans["scan-1"] = &Record{ID: "scan-1", StoreName: "Aria"}
				request = httptest.NewRequest("GET", "/api/scans/scan-1", nil)
			})

			It("responds 200 with the scan", func() {
				Expect(recorder.Code).To(Equal(http.StatusOK))

				var record Record
				Expect(json.Unmarshal(recorder.Body.Bytes(), &record)).To(Succeed())
				Expect(record.StoreName).To(Equal("Aria"))
			})
		})

		When("the scan does not exist", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/scans/missing", nil)
			})

			It("responds 404", func() {
				Expect(recorder.Code).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("GET /api/scans/{id}/comparisons", func() {
		BeforeEach(func() {
			competitor := 4.49
			db.scans["scan-1"] = &Record{
				ID: "scan-1",
				Comparisons: []market.PriceComparison{
					{ItemName: "MILK 2%", ReceiptPrice: 4.99, CompetitorPrice: &competitor, Savings: 0.50, StoreName: "Superstore"},
				},
			}
			request = httptest.NewRequest("GET", "/api/scans/scan-1/comparisons", nil)
		})

		It("responds 200 with the ordered comparisons", func() {
			Expect(recorder.Code).To(Equal(http.StatusOK))

			var comparisons []market.PriceComparison
			Expect(json.Unmarshal(recorder.Body.Bytes(), &comparisons)).To(Succeed())
			Expect(comparisons).To(HaveLen(1))
			Expect(comparisons[0].Savings).To(Equal(0.50))
		})
	})

	Describe("GET /api/scans/{id}/prices", func() {
		BeforeEach(func() {
			db.priceRows["scan-1"] = []PriceRow{{ItemName: "MILK 2%", Price: 4.99, ReceiptScanID: "scan-1"}}
			request = httptest.NewRequest("GET", "/api/scans/scan-1/prices", nil)
		})

		It("responds 200 with the price rows", func() {
			Expect(recorder.Code).To(Equal(http.StatusOK))

			var rows []PriceRow
			Expect(json.Unmarshal(recorder.Body.Bytes(), &rows)).To(Succeed())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ItemName).To(Equal("MILK 2%"))
		})
	})

	Describe("DELETE /api/scans/{id}", func() {
		When("the scan exists", func() {
			BeforeEach(func() {
				db.scans["scan-1"] = &Record{ID: "scan-1"}
				request = httptest.NewRequest("DELETE", "/api/scans/scan-1", nil)
			})

			It("responds 204 and removes the scan", func() {
				Expect(recorder.Code).To(Equal(http.StatusNoContent))
				Expect(db.scans).NotTo(HaveKey("scan-1"))
			})
		})

		When("the scan does not exist", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("DELETE", "/api/scans/missing", nil)
			})

			It("responds 404", func() {
				Expect(recorder.Code).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			server = NewServer(service, BasicAuth{Username: "user", Password: "pass"})
		})

		When("credentials are missing", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/scans", nil)
			})

			It("responds 401", func() {
				Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			})
		})

		When("credentials are valid", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/scans", nil)
				request.SetBasicAuth("user", "pass")
			})

			It("responds 200", func() {
				Expect(recorder.Code).To(Equal(http.StatusOK))
			})
		})

		When("credentials are wrong", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/scans", nil)
				request.SetBasicAuth("user", "wrong")
			})

			It("responds 401", func() {
				Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			})
		})
	})
})
