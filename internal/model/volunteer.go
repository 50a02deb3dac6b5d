package model

import "time"

var areaLabels = map[string]string{
	"plw": "Plumbing",
	"ele": "Electrical Works",
	"mec": "Mechanic",
	"cln": "Cleaning",
	"dcr": "Debris Clearing",
	"hlp": "Helping Hands",
	"tec": "Technical Assistance",
	"mds": "Medical Support",
	"oth": "Other",
}

// AreaLabel returns the display label of a volunteer area code, or the code
// itself when unknown.
func AreaLabel(code string) string {
	if l, ok := areaLabels[code]; ok {
		return l
	}
	return code
}

type Volunteer struct {
	ID           int64     `db:"id" csv:"id"`
	Name         string    `db:"name" csv:"name"`
	District     string    `db:"district" csv:"district"`
	Phone        string    `db:"phone" csv:"phone"`
	Organisation string    `db:"organisation" csv:"organisation"`
	Address      string    `db:"address" csv:"address"`
	Area         string    `db:"area" csv:"area"`
	AreaDetails  *string   `db:"area_details" csv:"area_details"`
	IsSpoc       bool      `db:"is_spoc" csv:"is_spoc"`
	Joined       time.Time `db:"joined" csv:"joined"`
	IsActive     bool      `db:"is_active" csv:"is_active"`
	HasConsented bool      `db:"has_consented" csv:"has_consented"`
}

// CSVField exports the area as its display label.
func (v Volunteer) CSVField(name string) (string, bool) {
	if name == "area" {
		return AreaLabel(v.Area), true
	}
	return "", false
}

type VolunteerGroup struct {
	ID        int64  `db:"id" json:"id"`
	GroupName string `db:"group_name" json:"groupName"`
}
