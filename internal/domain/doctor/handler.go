package doctor

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/db"
	"github.com/medibook/medibook/internal/platform/upload"
	"github.com/medibook/medibook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	admin := auth.RequireRole(auth.RoleAdmin)
	api.POST("/doctors", h.CreateDoctor, admin)
	api.PUT("/doctors/:id", h.UpdateDoctor, admin)
	api.DELETE("/doctors/:id", h.DeleteDoctor, admin)

	api.PATCH("/doctors/:id/availability", h.SetAvailability)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	filters := map[string]string{}
	if dept := c.QueryParam("department"); dept != "" {
		filters["department_id"] = dept
	}
	if specialty := c.QueryParam("specialty"); specialty != "" {
		filters["specialty"] = specialty
	}
	if available := c.QueryParam("available"); available != "" {
		filters["available"] = available
	}
	doctors, total, err := h.svc.List(c.Request().Context(), filters, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list doctors")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	in, image, err := bindDoctorForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Create(c.Request().Context(), in, image)
	if err != nil {
		return mapDoctorError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	in, image, err := bindDoctorForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Update(c.Request().Context(), id, in, image)
	if err != nil {
		if db.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return mapDoctorError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if db.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		if errors.Is(err, ErrHasAppointments) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete doctor")
	}
	return c.NoContent(http.StatusNoContent)
}

// SetAvailability is allowed for admins and for the doctor whose profile it
// is, resolved through the doctor id carried in the token.
func (h *Handler) SetAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if !ident.IsAdmin() && (ident.DoctorID == nil || *ident.DoctorID != id) {
		return echo.NewHTTPError(http.StatusForbidden, "not your doctor profile")
	}
	var in struct {
		Available bool `json:"available"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.SetAvailability(c.Request().Context(), id, in.Available)
	if err != nil {
		if db.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update availability")
	}
	return c.JSON(http.StatusOK, d)
}

// bindDoctorForm reads the multipart form used by create and update. The
// image file header is nil when no file was attached.
func bindDoctorForm(c echo.Context) (Input, *multipart.FileHeader, error) {
	in := Input{
		Name:        c.FormValue("name"),
		Specialty:   c.FormValue("specialty"),
		Description: c.FormValue("description"),
	}
	if v := c.FormValue("experience_years"); v != "" {
		years, err := strconv.Atoi(v)
		if err != nil {
			return in, nil, errors.New("experience_years must be a number")
		}
		in.ExperienceYears = years
	}
	if v := c.FormValue("consultation_fee"); v != "" {
		fee, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, nil, errors.New("consultation_fee must be a number")
		}
		in.ConsultationFee = fee
	}
	if v := c.FormValue("department_id"); v != "" {
		deptID, err := uuid.Parse(v)
		if err != nil {
			return in, nil, errors.New("department_id must be a valid id")
		}
		in.DepartmentID = &deptID
	}
	if v := c.FormValue("email"); v != "" {
		in.Email = &v
	}
	if v := c.FormValue("phone"); v != "" {
		in.Phone = &v
	}
	if v := c.FormValue("available"); v != "" {
		available := v == "true"
		in.Available = &available
	}

	image, err := c.FormFile(upload.FieldName)
	if err != nil {
		// Requests without a file, or without a multipart body at all, are
		// fine; anything else is a malformed body.
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return in, nil, nil
		}
		return in, nil, errors.New("malformed multipart body")
	}
	return in, image, nil
}

func mapDoctorError(err error) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, upload.ErrFileTooLarge), errors.Is(err, upload.ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
