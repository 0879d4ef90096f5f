package qbo

import "strings"

// Capability is a set of operations an entity supports.
type Capability uint8

// Operation flags.
const (
	CapabilityQuery Capability = 1 << iota
	CapabilityCreate
	CapabilityRead
	CapabilityUpdate
	CapabilityDelete
	CapabilityReport
)

// Common capability sets.
const (
	CapabilitiesAll       = CapabilityQuery | CapabilityCreate | CapabilityRead | CapabilityUpdate | CapabilityDelete
	CapabilitiesNameList  = CapabilityQuery | CapabilityCreate | CapabilityRead | CapabilityUpdate
	CapabilitiesReadOnly  = CapabilityQuery | CapabilityRead
	CapabilitiesWriteOnce = CapabilityQuery | CapabilityCreate | CapabilityRead
	CapabilitiesSettings  = CapabilityQuery | CapabilityRead | CapabilityUpdate
)

var capabilityNames = []struct {
	flag Capability
	name string
}{
	{CapabilityQuery, "query"},
	{CapabilityCreate, "create"},
	{CapabilityRead, "read"},
	{CapabilityUpdate, "update"},
	{CapabilityDelete, "delete"},
	{CapabilityReport, "report"},
}

// Has reports whether every flag in other is present.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Names lists the operations in a stable order.
func (c Capability) Names() []string {
	names := make([]string, 0, len(capabilityNames))

	for _, entry := range capabilityNames {
		if c.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}

	return names
}

// String implements fmt.Stringer.
func (c Capability) String() string {
	return strings.Join(c.Names(), ",")
}

// EntityDescriptor describes one accounting entity or report.
//
// Handle is the key callers use to look the entity up, Name is the entity
// name used in default queries and Fragment is the URL path segment.
type EntityDescriptor struct {
	Handle       string     `json:"handle"       yaml:"handle"`
	Name         string     `json:"name"         yaml:"name"`
	Fragment     string     `json:"fragment"     yaml:"fragment"`
	Capabilities Capability `json:"capabilities" yaml:"capabilities"`
}

// IsReport reports whether the descriptor is a report.
func (d EntityDescriptor) IsReport() bool {
	return d.Capabilities.Has(CapabilityReport)
}

func entity(name string, caps Capability) EntityDescriptor {
	return EntityDescriptor{Handle: name, Name: name, Fragment: strings.ToLower(name), Capabilities: caps}
}

func report(handle, name string) EntityDescriptor {
	return EntityDescriptor{Handle: handle, Name: name, Fragment: name, Capabilities: CapabilityReport}
}

var registry = []EntityDescriptor{
	// Transactions
	entity("Bill", CapabilitiesAll),
	entity("BillPayment", CapabilitiesAll),
	entity("CreditMemo", CapabilitiesAll),
	entity("Deposit", CapabilitiesAll),
	entity("Estimate", CapabilitiesAll),
	entity("Invoice", CapabilitiesAll),
	entity("JournalEntry", CapabilitiesAll),
	entity("Payment", CapabilitiesAll),
	entity("Purchase", CapabilitiesAll),
	entity("Purchaseorder", CapabilitiesAll),
	entity("RefundReceipt", CapabilitiesAll),
	entity("SalesReceipt", CapabilitiesAll),
	entity("TimeActivity", CapabilitiesAll),
	entity("Transfer", CapabilitiesAll),
	entity("VendorCredit", CapabilitiesAll),

	// Name lists
	entity("Account", CapabilitiesNameList),
	entity("Budget", CapabilitiesReadOnly),
	entity("Class", CapabilitiesNameList),
	entity("CompanyCurrency", CapabilitiesAll),
	entity("Customer", CapabilitiesNameList),
	entity("Department", CapabilitiesNameList),
	entity("Employee", CapabilitiesNameList),
	entity("Item", CapabilitiesNameList),
	entity("Journalcode", CapabilitiesNameList), // FR locale only
	entity("PaymentMethod", CapabilitiesNameList),
	entity("TaxAgency", CapabilitiesWriteOnce),
	entity("TaxCode", CapabilitiesWriteOnce),
	entity("TaxRate", CapabilitiesWriteOnce),
	entity("TaxService", CapabilityQuery|CapabilityCreate),
	entity("Term", CapabilitiesNameList),
	entity("Vendor", CapabilitiesNameList),

	// Supporting entities
	entity("Attachable", CapabilitiesAll),
	entity("CompanyInfo", CapabilitiesSettings),
	entity("Preferences", CapabilitiesSettings),

	// Reports
	report("AccountListDetailReport", "AccountList"),
	report("APAgingDetailReport", "AgedPayableDetail"),
	report("APAgingSummaryReport", "AgedPayables"),
	report("ARAgingDetailReport", "AgedReceivableDetail"),
	report("ARAgingSummaryReport", "AgedReceivables"),
	report("BalanceSheetReport", "BalanceSheet"),
	report("CashFlowReport", "CashFlow"),
	report("CustomerBalanceReport", "CustomerBalance"),
	report("CustomerBalanceDetailReport", "CustomerBalanceDetail"),
	report("CustomerIncomeReport", "CustomerIncome"),
	report("GeneralLedgerReport", "GeneralLedger"),
	report("GeneralLedgerReportFR", "GeneralLedgerFR"),
	report("InventoryValuationSummaryReport", "InventoryValuationSummary"),
	report("JournalReport", "JournalReport"),
	report("ProfitAndLossReport", "ProfitAndLoss"),
	report("ProfitAndLossDetailReport", "ProfitAndLossDetail"),
	report("SalesByClassSummaryReport", "ClassSales"),
	report("SalesByCustomerReport", "CustomerSales"),
	report("SalesByDepartmentReport", "DepartmentSales"),
	report("SalesByProductReport", "ItemSales"),
	report("TaxSummaryReport", "TaxSummary"),
	report("TransactionListReport", "TransactionList"),
	report("TrialBalanceReportFR", "TrialBalanceFR"),
	report("TrialBalanceReport", "TrialBalance"),
	report("VendorBalanceReport", "VendorBalance"),
	report("VendorBalanceDetailReport", "VendorBalanceDetail"),
	report("VendorExpensesReport", "VendorExpenses"),
}

// Registry returns a copy of the entity table in declaration order.
func Registry() []EntityDescriptor {
	out := make([]EntityDescriptor, len(registry))
	copy(out, registry)

	return out
}

// LookupEntity finds a descriptor by handle.
func LookupEntity(handle string) (EntityDescriptor, bool) {
	for _, d := range registry {
		if d.Handle == handle {
			return d, true
		}
	}

	return EntityDescriptor{}, false
}
