package handlers

import (
	"net/http"

	"tokenup/internal/models"
	"tokenup/internal/services"
	"tokenup/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CertificateHandler struct {
	certs *services.CertificateService
	log   zerolog.Logger
}

func NewCertificateHandler(certs *services.CertificateService, log zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{certs: certs, log: log}
}

// Types lists the certificate catalog.
func (h *CertificateHandler) Types(c *gin.Context) {
	c.JSON(http.StatusOK, models.CertificateTypes())
}

// List handles GET /api/certificates?userId=
func (h *CertificateHandler) List(c *gin.Context) {
	var owner *uint
	if raw := c.Query("userId"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			badRequest(c, "invalid userId")
			return
		}
		owner = &id
	}
	certs, err := h.certs.List(c.Request.Context(), owner)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, certs)
}

func (h *CertificateHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cert, err := h.certs.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

// createRequest has no token value; clients that send one are ignored.
type createRequest struct {
	Title           string `json:"title"`
	Issuer          string `json:"issuer"`
	ImageURL        string `json:"imageUrl"`
	Description     string `json:"description"`
	CertificateType string `json:"certificateType"`
	FileType        string `json:"fileType"`
	IsPDF           bool   `json:"isPdf"`
}

func (h *CertificateHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user := currentUser(c)
	if user == nil {
		Fail(c, h.log, services.ErrUnauthenticated)
		return
	}
	cert, err := h.certs.Create(c.Request.Context(), user.ID, services.CreateCertificateInput{
		Title:           req.Title,
		Issuer:          req.Issuer,
		ImageURL:        req.ImageURL,
		Description:     req.Description,
		CertificateType: req.CertificateType,
		FileType:        req.FileType,
		IsPDF:           req.IsPDF,
	})
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cert)
}

// Verify handles POST /api/certificates/:id/verify and returns both the
// certificate and the owner's new balance.
func (h *CertificateHandler) Verify(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.certs.Verify(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Reconcile re-drives awards for verified certificates without one.
func (h *CertificateHandler) Reconcile(c *gin.Context) {
	res, err := h.certs.Reconcile(c.Request.Context())
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
