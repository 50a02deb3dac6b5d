package model

import "time"

// Status codes written by the admin bulk actions.
const (
	RequestNew      = "new"
	RequestOngoing  = "pro"
	RequestSupplied = "sup"
	ContributorNew  = "new"
	ContributorFull = "ful"
	CampActive      = "active"
	CampClosed      = "closed"
)

type Request struct {
	ID             int64     `db:"id" csv:"id"`
	District       string    `db:"district" csv:"district"`
	Location       string    `db:"location" csv:"location"`
	Requestee      string    `db:"requestee" csv:"requestee"`
	RequesteePhone string    `db:"requestee_phone" csv:"requestee_phone"`
	LatLng         *string   `db:"latlng" csv:"latlng"`
	NeedRescue     bool      `db:"needrescue" csv:"needrescue"`
	NeedWater      bool      `db:"needwater" csv:"needwater"`
	NeedFood       bool      `db:"needfood" csv:"needfood"`
	NeedCloth      bool      `db:"needcloth" csv:"needcloth"`
	NeedMed        bool      `db:"needmed" csv:"needmed"`
	NeedOthers     *string   `db:"needothers" csv:"needothers"`
	Status         string    `db:"status" csv:"status"`
	SupplyDetails  *string   `db:"supply_details" csv:"supply_details"`
	DateAdded      time.Time `db:"dateadded" csv:"dateadded"`
}

type Contributor struct {
	ID               int64   `db:"id" csv:"id"`
	District         string  `db:"district" csv:"district"`
	Name             string  `db:"name" csv:"name"`
	Phone            string  `db:"phone" csv:"phone"`
	Address          string  `db:"address" csv:"address"`
	Commodities      string  `db:"commodities" csv:"commodities"`
	ContributionType string  `db:"contribution_type" csv:"contribution_type"`
	ContribDetails   *string `db:"contrib_details" csv:"contrib_details"`
	Status           string  `db:"status" csv:"status"`
}

type RescueCamp struct {
	ID                  int64   `db:"id" csv:"id"`
	Name                string  `db:"name" csv:"name"`
	Location            *string `db:"location" csv:"location"`
	District            string  `db:"district" csv:"district"`
	Taluk               string  `db:"taluk" csv:"taluk"`
	Village             string  `db:"village" csv:"village"`
	Contacts            *string `db:"contacts" csv:"contacts"`
	MapLink             *string `db:"map_link" csv:"map_link"`
	TotalPeople         *int64  `db:"total_people" csv:"total_people"`
	TotalMales          *int64  `db:"total_males" csv:"total_males"`
	TotalFemales        *int64  `db:"total_females" csv:"total_females"`
	TotalInfants        *int64  `db:"total_infants" csv:"total_infants"`
	FoodReq             *string `db:"food_req" csv:"food_req"`
	ClothingReq         *string `db:"clothing_req" csv:"clothing_req"`
	SanitaryReq         *string `db:"sanitary_req" csv:"sanitary_req"`
	MedicalReq          *string `db:"medical_req" csv:"medical_req"`
	OtherReq            *string `db:"other_req" csv:"other_req"`
	FacilitiesAvailable *string `db:"facilities_available" csv:"facilities_available"`
	Status              string  `db:"status" csv:"status"`
}

// Person is an inmate registered at a rescue camp. CampedAt holds the camp name.
type Person struct {
	ID       int64     `db:"id" csv:"id"`
	Name     string    `db:"name" csv:"name"`
	Phone    *string   `db:"phone" csv:"phone"`
	Age      *int64    `db:"age" csv:"age"`
	Gender   *string   `db:"gender" csv:"gender"`
	Address  *string   `db:"address" csv:"address"`
	District *string   `db:"district" csv:"district"`
	Notes    *string   `db:"notes" csv:"notes"`
	CampID   int64     `db:"camped_at_id" csv:"camped_at_id"`
	CampedAt string    `db:"camped_at" csv:"camped_at"`
	AddedAt  time.Time `db:"added_at" csv:"added_at"`
	Status   *string   `db:"status" csv:"status"`
}

type NGO struct {
	ID                  int64     `db:"id" csv:"id"`
	Organisation        string    `db:"organisation" csv:"organisation"`
	OrganisationType    string    `db:"organisation_type" csv:"organisation_type"`
	OrganisationAddress string    `db:"organisation_address" csv:"organisation_address"`
	Name                string    `db:"name" csv:"name"`
	Phone               string    `db:"phone" csv:"phone"`
	Email               *string   `db:"email" csv:"email"`
	District            string    `db:"district" csv:"district"`
	Area                string    `db:"area" csv:"area"`
	Location            string    `db:"location" csv:"location"`
	Description         *string   `db:"description" csv:"description"`
	Joined              time.Time `db:"joined" csv:"joined"`
}

type CollectionCenter struct {
	ID                        int64     `db:"id" csv:"id"`
	Name                      string    `db:"name" csv:"name"`
	Address                   *string   `db:"address" csv:"address"`
	Contacts                  *string   `db:"contacts" csv:"contacts"`
	TypeOfMaterialsCollecting *string   `db:"type_of_materials_collecting" csv:"type_of_materials_collecting"`
	District                  *string   `db:"district" csv:"district"`
	LsgType                   *string   `db:"lsg_type" csv:"lsg_type"`
	LsgName                   *string   `db:"lsg_name" csv:"lsg_name"`
	WardName                  *string   `db:"ward_name" csv:"ward_name"`
	IsInsideKerala            bool      `db:"is_inside_kerala" csv:"is_inside_kerala"`
	City                      *string   `db:"city" csv:"city"`
	AddedAt                   time.Time `db:"added_at" csv:"added_at"`
	MapLink                   *string   `db:"map_link" csv:"map_link"`
}
