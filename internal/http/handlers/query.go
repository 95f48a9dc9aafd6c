package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryInt reads an integer query param, falling back on absent or
// unparseable values. Range clamping happens in the service layer.
func queryInt(ctx *gin.Context, name string, fallback int) int {
	raw := ctx.Query(name)

	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)

	if err != nil {
		return fallback
	}

	return n
}

func optionalQuery(ctx *gin.Context, name string) *string {
	raw := ctx.Query(name)

	if raw == "" {
		return nil
	}

	return &raw
}
