package domain

import "time"

type ReceiptStatus string

const (
	StatusUploaded          ReceiptStatus = "uploaded"
	StatusProcessing        ReceiptStatus = "processing"
	StatusRenamed           ReceiptStatus = "renamed"
	StatusCollisionResolved ReceiptStatus = "collision_resolved"
	StatusSkippedNoData     ReceiptStatus = "skipped_no_data"
	StatusFailed            ReceiptStatus = "failed"
)

type Category string

const (
	CategoryRestaurant     Category = "Restaurant"
	CategoryParking        Category = "Parking"
	CategoryGas            Category = "Gas"
	CategoryGrocery        Category = "Grocery"
	CategoryRetail         Category = "Retail"
	CategoryTransportation Category = "Transportation"
	CategoryEntertainment  Category = "Entertainment"
	CategoryHealthcare     Category = "Healthcare"
	CategoryUtilities      Category = "Utilities"
	CategoryOther          Category = "Other"
)

// AllCategories returns the fixed category set in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryRestaurant,
		CategoryParking,
		CategoryGas,
		CategoryGrocery,
		CategoryRetail,
		CategoryTransportation,
		CategoryEntertainment,
		CategoryHealthcare,
		CategoryUtilities,
		CategoryOther,
	}
}

func IsValidCategory(c Category) bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

type Receipt struct {
	ID               string        `json:"id"`
	BatchID          string        `json:"batch_id"`
	OriginalFilename string        `json:"original_filename"`
	Extension        string        `json:"extension"`
	MimeType         string        `json:"mime_type"`
	StorageKey       string        `json:"storage_key"`
	Category         Category      `json:"category,omitempty"`
	Date             *Date         `json:"date,omitempty"`
	Amount           *Amount       `json:"amount,omitempty"`
	ProposedFilename string        `json:"proposed_filename,omitempty"`
	TextSnippet      string        `json:"text_snippet,omitempty"`
	Status           ReceiptStatus `json:"status"`
	Error            string        `json:"error,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Extraction is the outcome of running the pipeline over one receipt's text.
// Date and Amount stay nil when nothing usable was found; Category is never
// empty because classification falls back to Other.
type Extraction struct {
	Category Category `json:"category"`
	Date     *Date    `json:"date,omitempty"`
	Amount   *Amount  `json:"amount,omitempty"`
}

// ReceiptResult carries everything the pipeline decided about one receipt,
// ready to persist in a single update. StorageKey is empty unless the
// stored object moved.
type ReceiptResult struct {
	Category         Category
	Date             *Date
	Amount           *Amount
	ProposedFilename string
	TextSnippet      string
	StorageKey       string
	Status           ReceiptStatus
	Error            string
}

// EntityAnalysis is optional evidence from an entity analyzer. Entities carry
// the analyzer's label and confidence; key phrases come without either.
type EntityAnalysis struct {
	Entities   []Entity `json:"entities"`
	KeyPhrases []string `json:"key_phrases"`
}

type Entity struct {
	Label      string  `json:"label"`
	Phrase     string  `json:"phrase"`
	Confidence float64 `json:"confidence"`
}
