package services

import (
	"context"
	"io"
	"time"

	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/pkg/pagination"
)

// ReceiptService defines the receipt operations
type ReceiptService interface {
	// CreateReceipt validates a payment against the bill's current balance and
	// records it together with the bill's new aggregate
	CreateReceipt(ctx context.Context, req *CreateReceiptRequest) (*models.Receipt, error)
	GetReceipt(ctx context.Context, receiptNumber int64) (*models.Receipt, error)
	ListReceipts(ctx context.Context, filters *ReceiptFilters) (*pagination.Result[*models.Receipt], error)

	// FormatReceiptForPrint returns the receipt with the shop header and the bill
	// balance as it stood right after the payment
	FormatReceiptForPrint(ctx context.Context, receiptNumber int64) (*PrintableReceipt, error)
}

// BillService defines the bill operations
type BillService interface {
	CreateBill(ctx context.Context, req *CreateBillRequest) (*BillDetails, error)

	// GetBill returns the bill with a freshly computed aggregate and its receipts
	GetBill(ctx context.Context, billNumber int64) (*BillDetails, error)
	ListBills(ctx context.Context, filters *BillFilters) (*pagination.Result[*BillDetails], error)
	UpdateDeliveryStatus(ctx context.Context, billNumber int64, status models.DeliveryStatus) (*BillDetails, error)
}

// TaxService defines the tax definition operations
type TaxService interface {
	CreateTax(ctx context.Context, req *TaxRequest) (*models.TaxDefinition, error)
	GetTax(ctx context.Context, name string) (*models.TaxDefinition, error)
	ListTaxes(ctx context.Context) ([]*models.TaxDefinition, error)
	UpdateTax(ctx context.Context, name string, req *TaxRequest) (*models.TaxDefinition, error)
	DeleteTax(ctx context.Context, name string) error

	// ResolveTaxes snapshots the stored definition for every known name and keeps
	// the submitted definition for the rest
	ResolveTaxes(ctx context.Context, inputs []TaxInput) ([]models.AppliedTax, error)
}

// DashboardService computes shop-wide statistics
type DashboardService interface {
	GetStats(ctx context.Context, window models.DateRange) (*models.DashboardStats, error)
}

// ReportService builds bill reports
type ReportService interface {
	BillReport(ctx context.Context, window models.DateRange) (*BillReport, error)
	ExportBillsXLSX(ctx context.Context, window models.DateRange, w io.Writer) error

	// ArchiveBillsXLSX exports the window and keeps a copy in the archive
	ArchiveBillsXLSX(ctx context.Context, window models.DateRange) (*ArchivedReport, error)
	ListArchivedReports(ctx context.Context) ([]ArchivedReport, error)
	GetArchivedReport(ctx context.Context, name string) ([]byte, error)
}

// Receipt service types

// CreateReceiptRequest is a payment submitted against a bill
type CreateReceiptRequest struct {
	Amount        models.Money         `json:"amount"`
	Bill          models.BillRef       `json:"bill"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	PaymentDate   string               `json:"paymentDate"`
	Discount      models.Money         `json:"discount"`
	Tax           []TaxInput           `json:"tax"`
	IssuedBy      string               `json:"-"`
}

// TaxInput names a tax to apply. Type and Value are used when the name is not
// a stored definition.
type TaxInput struct {
	Name  string         `json:"name"`
	Type  models.TaxType `json:"type"`
	Value models.Money   `json:"value"`
}

type ReceiptFilters struct {
	models.ReceiptFilter
	Page pagination.Params
}

// ShopInfo is the header printed on receipts
type ShopInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// PrintableReceipt is a print-ready receipt document
type PrintableReceipt struct {
	Shop         ShopInfo           `json:"shop"`
	Receipt      *models.Receipt    `json:"receipt"`
	CustomerName string             `json:"customerName"`
	Orders       []models.LineOrder `json:"orders"`
	TaxLines     []billing.TaxLine  `json:"taxLines"`
	NetPayment   models.Money       `json:"netPayment"`
	BillSummary  billing.Summary    `json:"billSummary"`
}

// Bill service types

type CreateBillRequest struct {
	CustomerName  string         `json:"customerName" validate:"required,max=100"`
	CustomerPhone string         `json:"customerPhone,omitempty" validate:"omitempty,max=20"`
	Orders        []OrderRequest `json:"orders" validate:"required,min=1,dive"`
	OrderDate     string         `json:"orderDate,omitempty"`
	DueDate       string         `json:"dueDate,omitempty"`
	Urgent        bool           `json:"urgent"`
	Trail         bool           `json:"trail"`
	CreatedBy     string         `json:"-"`
}

type OrderRequest struct {
	Description string       `json:"description" validate:"required,max=200"`
	Quantity    int          `json:"quantity" validate:"required,min=1"`
	Amount      models.Money `json:"amount" validate:"min=0"`
}

type BillFilters struct {
	models.BillFilter
	Page pagination.Params
}

// BillDetails is a bill with its reconciled aggregate. The bill's monetary
// fields carry the same values as Summary.
type BillDetails struct {
	*models.Bill
	Summary  billing.Summary   `json:"summary"`
	Receipts []*models.Receipt `json:"receipts,omitempty"`
}

// Tax service types

type TaxRequest struct {
	Name  string         `json:"name" validate:"required,max=100"`
	Type  models.TaxType `json:"type" validate:"required"`
	Value models.Money   `json:"value" validate:"min=0"`
}

// Report service types

// BillReportRow is one bill of a report with its aggregate
type BillReportRow struct {
	Bill    *models.Bill    `json:"bill"`
	Summary billing.Summary `json:"summary"`
}

// ArchivedReport describes an exported workbook kept in the archive
type ArchivedReport struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// BillReport aggregates every bill ordered within a window
type BillReport struct {
	Window models.DateRange `json:"window"`
	Rows   []BillReportRow  `json:"rows"`
	Totals billing.Summary  `json:"totals"`
}
