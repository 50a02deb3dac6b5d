package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/LeventeLantos/relief-admin/internal/export"
	"github.com/LeventeLantos/relief-admin/internal/model"
	"github.com/LeventeLantos/relief-admin/internal/queue"
	"github.com/LeventeLantos/relief-admin/internal/repo"
	"github.com/LeventeLantos/relief-admin/internal/service"
)

// Tables groups the record stores behind each admin entity.
type Tables struct {
	Requests          Records[model.Request]
	Volunteers        Records[model.Volunteer]
	NGOs              Records[model.NGO]
	Contributors      Records[model.Contributor]
	RescueCamps       Records[model.RescueCamp]
	Persons           Records[model.Person]
	CollectionCenters Records[model.CollectionCenter]
}

var (
	campFields = []string{
		"district", "name", "location", "taluk", "village", "status", "contacts",
		"facilities_available", "total_people", "total_males", "total_females",
		"total_infants", "food_req", "clothing_req", "sanitary_req", "medical_req", "other_req",
	}
	inmateFields = []string{"name", "address", "phone", "age", "gender", "district", "camped_at"}
	personFields = []string{"name", "phone", "age", "gender", "district", "camped_at", "status"}
	centerFields = []string{
		"name", "address", "contacts", "type_of_materials_collecting", "district",
		"lsg_type", "lsg_name", "ward_name", "is_inside_kerala", "city", "added_at", "map_link",
	}
)

// NewReliefSite registers the admin for every relief entity.
func NewReliefSite(t Tables, volunteers repo.VolunteerRepository, q queue.Enqueuer, log *zap.Logger) *Site {
	s := NewSite(log)

	s.Register(&ModelAdmin{
		Entity: "requests",
		Actions: []Action{
			{Name: "download_csv", Description: "Download selected as CSV",
				Run: downloadCSV("requests", "Requests", export.Fields[model.Request](), t.Requests.ByIDs)},
			{Name: "mark_as_completed", Description: "Mark as completed",
				Run: setStatus("requests", t.Requests, "status", model.RequestSupplied, "Marked selected requests as completed.")},
			{Name: "mark_as_new", Description: "Mark as new",
				Run: setStatus("requests", t.Requests, "status", model.RequestNew, "Marked selected requests as new.")},
			{Name: "mark_as_ongoing", Description: "Mark as ongoing",
				Run: setStatus("requests", t.Requests, "status", model.RequestOngoing, "Marked selected requests as ongoing.")},
		},
	})

	s.Register(&ModelAdmin{
		Entity: "volunteers",
		Actions: []Action{
			{Name: "download_csv", Description: "Download selected as CSV",
				Run: downloadCSV("volunteers", "Volunteers", export.Fields[model.Volunteer](), t.Volunteers.ByIDs)},
			{Name: "mark_inactive", Description: "Mark inactive",
				Run: update("volunteers", "", func(ctx context.Context, ids []int64) (int64, error) {
					return volunteers.SetActive(ctx, ids, false)
				})},
			{Name: "mark_active", Description: "Mark active",
				Run: update("volunteers", "", func(ctx context.Context, ids []int64) (int64, error) {
					return volunteers.SetActive(ctx, ids, true)
				})},
		},
		Dynamic: groupActions(volunteers, q),
	})

	s.Register(&ModelAdmin{
		Entity: "ngos",
		Actions: []Action{
			{Name: "download_csv", Description: "Download selected as CSV",
				Run: downloadCSV("ngos", "NGOs", export.Fields[model.NGO](), t.NGOs.ByIDs)},
		},
	})

	s.Register(&ModelAdmin{
		Entity: "contributors",
		Actions: []Action{
			{Name: "download_csv", Description: "Download selected as CSV",
				Run: downloadCSV("contributors", "Contributors", export.Fields[model.Contributor](), t.Contributors.ByIDs)},
			{Name: "mark_as_fullfulled", Description: "Mark as fulfilled",
				Run: setStatus("contributors", t.Contributors, "status", model.ContributorFull, "")},
			{Name: "mark_as_new", Description: "Mark as new",
				Run: setStatus("contributors", t.Contributors, "status", model.ContributorNew, "")},
		},
	})

	s.Register(&ModelAdmin{
		Entity: "rescue_camps",
		Actions: []Action{
			{Name: "download_csv", Description: "Download selected as CSV",
				Run: downloadCSV("rescue_camps", "RescueCamp", campFields, t.RescueCamps.ByIDs)},
			{Name: "download_inmates", Description: "Download inmates of selected camps",
				Run: downloadCSV("rescue_camps", "InmatesList", inmateFields,
					func(ctx context.Context, ids []int64) ([]model.Person, error) {
						return t.Persons.ByParent(ctx, "camped_at_id", ids)
					})},
			{Name: "mark_as_closed", Description: "Mark as closed",
				Run: setStatus("rescue_camps", t.RescueCamps, "status", model.CampClosed, "")},
			{Name: "mark_as_active", Description: "Mark as active",
				Run: setStatus("rescue_camps", t.RescueCamps, "status", model.CampActive, "")},
		},
	})

	s.Register(&ModelAdmin{
		Entity: "persons",
		Actions: []Action{
			{Name: "download_csv", Description: "Download selected as CSV",
				Run: downloadCSV("persons", "People in relief camps", personFields, t.Persons.ByIDs)},
			{Name: "stream_csv", Description: "Stream selected as CSV",
				Run: streamCSV("persons", "inmates", personFields, t.Persons.ByIDsSeq)},
			{Name: "download_xlsx", Description: "Download selected as Excel",
				Run: downloadXLSX("persons", "People in relief camps", personFields, t.Persons.ByIDs)},
		},
	})

	s.Register(&ModelAdmin{
		Entity: "collection_centers",
		Actions: []Action{
			{Name: "download_csv", Description: "Download selected as CSV",
				Run: downloadCSV("collection_centers", "Collection_Centers", centerFields, t.CollectionCenters.ByIDs)},
		},
	})

	return s
}

// groupActions offers one "Add to Group" action per volunteer group that
// exists at request time. The membership write runs on the worker.
func groupActions(volunteers repo.VolunteerRepository, q queue.Enqueuer) func(context.Context) ([]Action, error) {
	return func(ctx context.Context) ([]Action, error) {
		groups, err := volunteers.Groups(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]Action, 0, len(groups))
		for _, g := range groups {
			out = append(out, Action{
				Name:        "add_to_group_" + strconv.FormatInt(g.ID, 10),
				Description: "Add to Group " + g.GroupName,
				Run: func(w http.ResponseWriter, r *http.Request, ids []int64) error {
					task := service.GroupTask{GroupID: g.ID, VolunteerIDs: ids}
					if _, err := q.Enqueue(r.Context(), queue.VolunteerGroup, queue.TaskAssignGroup, task); err != nil {
						return errors.Wrapf(err, "queue group %d assignment", g.ID)
					}
					redirectWithFlash(w, r, "/admin/entities/volunteers/",
						fmt.Sprintf("Adding %d volunteers to group %s.", len(ids), g.GroupName))
					return nil
				},
			})
		}
		return out, nil
	}
}
