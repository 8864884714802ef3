package domain

// Record is a schemaless document proxied to the data store (patients,
// inventory items, ...). The store owns the "id" and "created_at" keys.
type Record map[string]any

const (
	RecordIDField        = "id"
	RecordCreatedAtField = "created_at"
)

// Resource names a record collection and how it is described to callers.
// Listings sort by DefaultSort (created_at when empty), newest first unless
// SortAscending is set. TimestampField, when set, is stamped with the creation
// time on create if the client leaves it out.
type Resource struct {
	Collection     string
	Entity         string
	DefaultSort    string
	SortAscending  bool
	TimestampField string
}

var (
	ResourcePatients = Resource{Collection: "patients", Entity: "patient"}

	ResourcePatientMonitoring = Resource{
		Collection:     "patient_monitoring",
		Entity:         "monitoring record",
		DefaultSort:    "recorded_at",
		TimestampField: "recorded_at",
	}

	ResourceInventoryCategories = Resource{
		Collection:    "inventory_categories",
		Entity:        "category",
		DefaultSort:   "name",
		SortAscending: true,
	}

	ResourceInventoryItems = Resource{Collection: "inventory_items", Entity: "item"}

	ResourceInventoryTransactions = Resource{
		Collection:     "inventory_transactions",
		Entity:         "transaction",
		DefaultSort:    "transaction_date",
		TimestampField: "transaction_date",
	}
)
