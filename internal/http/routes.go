package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"earsip/internal/app"
	"earsip/internal/archive"
	"earsip/internal/attachment"
	"earsip/internal/auth"
	"earsip/internal/backup"
	"earsip/internal/domain"
	"earsip/internal/services"
)

const defaultRecentLimit = 4

type API struct {
	archive   *app.Controller
	directory *auth.Directory
	sessions  *auth.Sessions
	share     *services.ShareService
}

func NewAPI(controller *app.Controller, directory *auth.Directory, sessions *auth.Sessions, share *services.ShareService) *API {
	return &API{archive: controller, directory: directory, sessions: sessions, share: share}
}

func registerRoutes(r *gin.Engine, api *API) {
	r.GET("/api/health", api.handleHealth)
	r.POST("/api/auth/login", api.handleLogin)
	r.GET("/files/:id", api.handleServeSharedFile)

	apiGroup := r.Group("/api", RequireSession(api.sessions))
	{
		apiGroup.GET("/auth/me", api.handleMe)

		apiGroup.GET("/letters", api.handleListLetters)
		apiGroup.GET("/letters/recent", api.handleRecentLetters)
		apiGroup.GET("/letters/draft", api.handleNewDraft)
		apiGroup.POST("/letters", api.handleCreateLetter)
		apiGroup.GET("/letters/:id", api.handleGetLetter)
		apiGroup.PUT("/letters/:id", api.handleUpdateLetter)
		apiGroup.DELETE("/letters/:id", api.handleDeleteLetter)
		apiGroup.GET("/letters/:id/attachment", api.handleDownloadAttachment)
		apiGroup.POST("/letters/:id/share", api.handleShareAttachment)

		apiGroup.POST("/attachments", api.handleEncodeAttachment)

		apiGroup.GET("/stats", api.handleStats)
		apiGroup.GET("/report", api.handleReport)

		apiGroup.GET("/system/backup", api.handleBackup)
		apiGroup.POST("/system/restore", api.handleRestore)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleLogin(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := a.directory.Authenticate(payload.Username, payload.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, err)
		return
	}

	token, expiresAt, err := a.sessions.Issue(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt.UTC(), "user": user})
}

func (a *API) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (a *API) handleListLetters(c *gin.Context) {
	scope, err := archive.ParseScope(c.Query("scope"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	state := archive.NewViewState()
	state.SetScope(scope)
	state.SetTerm(c.Query("q"))
	state.SetStatus(c.Query("status"))
	state.SetDateRange(c.Query("start"), c.Query("end"))
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			respondMessage(c, http.StatusBadRequest, "invalid page")
			return
		}
		state.SetPage(page)
	}

	c.JSON(http.StatusOK, a.archive.View(state))
}

func (a *API) handleRecentLetters(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondMessage(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, a.archive.Recent(limit))
}

func (a *API) handleNewDraft(c *gin.Context) {
	scope, err := archive.ParseScope(c.Query("scope"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, a.archive.NewDraft(scope))
}

func (a *API) handleGetLetter(c *gin.Context) {
	letter, err := a.archive.Get(c.Param("id"))
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, letter)
}

func (a *API) handleCreateLetter(c *gin.Context) {
	var draft domain.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	letter, err := a.archive.Create(c.Request.Context(), currentUser(c), draft)
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	c.JSON(http.StatusCreated, letter)
}

func (a *API) handleUpdateLetter(c *gin.Context) {
	var draft domain.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	letter, err := a.archive.Update(currentUser(c), c.Param("id"), draft)
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, letter)
}

func (a *API) handleDeleteLetter(c *gin.Context) {
	if err := a.archive.Delete(currentUser(c), c.Param("id")); err != nil {
		respondArchiveError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleEncodeAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing file")
		return
	}

	upload, err := fileHeader.Open()
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	encoded, err := a.archive.EncodeAttachment(
		c.Request.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		upload,
	)
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, encoded)
}

func (a *API) handleDownloadAttachment(c *gin.Context) {
	a.serveAttachment(c, c.Param("id"))
}

func (a *API) handleShareAttachment(c *gin.Context) {
	letter, err := a.archive.Get(c.Param("id"))
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	if !letter.HasAttachment() {
		respondMessage(c, http.StatusBadRequest, "no attachment available for this letter")
		return
	}

	url, expiresAt := a.share.Generate(letter.ID)
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt.UTC()})
}

func (a *API) handleServeSharedFile(c *gin.Context) {
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if a.share.Expired(expires) {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	if !a.share.Validate(c.Request.URL.Path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	a.serveAttachment(c, c.Param("id"))
}

func (a *API) serveAttachment(c *gin.Context, id string) {
	name, mediaType, data, err := a.archive.AttachmentFile(id)
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, mediaType, data)
}

func (a *API) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.archive.Stats())
}

func (a *API) handleReport(c *gin.Context) {
	scope, err := archive.ParseScope(c.Query("scope"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	buf := &bytes.Buffer{}
	if err := a.archive.Report(buf, scope); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "Laporan_Arsip_"+string(scope)+".pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (a *API) handleBackup(c *gin.Context) {
	data, err := a.archive.Backup(currentUser(c))
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName))
	c.Data(http.StatusOK, "application/json", data)
}

func (a *API) handleRestore(c *gin.Context) {
	data, err := readRestorePayload(c)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Gagal membaca file.")
		return
	}

	confirmed := c.Query("confirm") == "true"
	count, err := a.archive.Restore(currentUser(c), data, confirmed)
	if errors.Is(err, app.ErrConfirmationRequired) {
		c.JSON(http.StatusPreconditionRequired, gin.H{
			"error":   "Restorasi akan menimpa data saat ini. Kirim ulang dengan confirm=true untuk melanjutkan.",
			"records": count,
		})
		return
	}
	if err != nil {
		respondArchiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": count})
}

// readRestorePayload accepts either a multipart "file" field or a raw body.
func readRestorePayload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		f, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request.Body)
}

func respondArchiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrForbidden):
		respondError(c, http.StatusForbidden, err)
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrNoFile):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidDraft),
		errors.Is(err, backup.ErrNotArray),
		errors.Is(err, backup.ErrMalformed),
		errors.Is(err, backup.ErrDuplicateID):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, attachment.ErrUnsupportedType):
		respondError(c, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, attachment.ErrTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, attachment.ErrNotDataURL):
		respondError(c, http.StatusUnprocessableEntity, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
