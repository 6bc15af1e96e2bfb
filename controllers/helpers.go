package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"creditdesk/services"
	"creditdesk/utils"

	"github.com/gin-gonic/gin"
)

// respondError переводит ошибку сервиса в HTTP-ответ {"error": "..."}
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var integrityErr *services.IntegrityError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &integrityErr):
		c.JSON(http.StatusConflict, gin.H{"error": integrityErr.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		utils.LogError("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON разбирает тело запроса; при ошибке отвечает 400
func bindJSON(c *gin.Context, dto interface{}) bool {
	if err := c.ShouldBindJSON(dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

// listParams читает page, pageSize, search и ordering из строки запроса
func listParams(c *gin.Context) services.ListParams {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	return services.ListParams{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}.Normalize()
}

// uintParam читает числовой параметр пути; при ошибке отвечает 404
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
		return 0, false
	}
	return uint(id), true
}

// uintQuery читает необязательный числовой фильтр; ноль означает "не задан"
func uintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + ": A valid integer is required."})
		return 0, false
	}
	return uint(id), true
}

// boolQuery читает необязательный логический фильтр
func boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + ": Must be a valid boolean."})
		return nil, false
	}
	return &value, true
}
