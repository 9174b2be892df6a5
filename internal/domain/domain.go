package domain

// Client is the top of the ownership chain. Owned by the document store; the
// engine only derives from it and issues delete commands against it.
type Client struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Site belongs to exactly one client. ClientName is a display snapshot taken
// at creation; validity is decided by ClientID alone.
type Site struct {
	ID         string `json:"id"`
	ClientID   string `json:"client_id"`
	Name       string `json:"name"`
	ClientName string `json:"client_name,omitempty"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

// Job is a unit of field work under a site. ClientName and SiteName are
// display snapshots taken at creation so a job stays readable even if its
// parents are renamed later; the id chain alone decides validity.
//
// CreatedAt is the server-assigned creation clock in unix seconds. Zero means
// the timestamp has not round-tripped from the store yet.
type Job struct {
	ID              string `json:"id"`
	SiteID          string `json:"site_id"`
	ClientName      string `json:"client_name,omitempty"`
	SiteName        string `json:"site_name,omitempty"`
	Type            string `json:"type" enum:"cctv,alarm,access,electric"`
	Status          string `json:"status" enum:"quote_needed,quote_done,order_material,waiting_material,material_ordered,todo,progress,suspended,done,cancelled"`
	Description     string `json:"description"`
	OfferRef        string `json:"offer_ref,omitempty"`
	TechnicianNotes string `json:"technician_notes,omitempty"`
	IsPriority      bool   `json:"is_priority"`
	StartDate       string `json:"start_date,omitempty" format:"date"`
	EndDate         string `json:"end_date,omitempty" format:"date"`
	CreatedAt       int64  `json:"created_at,omitempty"`
}

// Job statuses. done and cancelled are terminal; everything else is open.
const (
	StatusQuoteNeeded     = "quote_needed"
	StatusQuoteDone       = "quote_done"
	StatusOrderMaterial   = "order_material"
	StatusWaitingMaterial = "waiting_material"
	StatusMaterialOrdered = "material_ordered"
	StatusTodo            = "todo"
	StatusProgress        = "progress"
	StatusSuspended       = "suspended"
	StatusDone            = "done"
	StatusCancelled       = "cancelled"
)

// Job types.
const (
	TypeCCTV     = "cctv"
	TypeAlarm    = "alarm"
	TypeAccess   = "access"
	TypeElectric = "electric"
)

// Statuses lists every job status in workflow order.
var Statuses = []string{
	StatusQuoteNeeded,
	StatusQuoteDone,
	StatusOrderMaterial,
	StatusWaitingMaterial,
	StatusMaterialOrdered,
	StatusTodo,
	StatusProgress,
	StatusSuspended,
	StatusDone,
	StatusCancelled,
}

// JobTypes lists every job type.
var JobTypes = []string{TypeCCTV, TypeAlarm, TypeAccess, TypeElectric}

// IsClosed reports whether a status is terminal.
func IsClosed(status string) bool {
	return status == StatusDone || status == StatusCancelled
}

// IsOpen reports whether a job is still active work.
func (j Job) IsOpen() bool {
	return !IsClosed(j.Status)
}

// ValidStatus reports whether s is a known job status.
func ValidStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ValidJobType reports whether t is a known job type.
func ValidJobType(t string) bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}
