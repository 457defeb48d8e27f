package db

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const dbKey = "db"

// SetDBtoContext injeta a conexão em todas as requisições.
func SetDBtoContext(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbKey, database)
		c.Next()
	}
}

func DBInstance(c *gin.Context) *gorm.DB {
	v, ok := c.Get(dbKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}

// FromContext devolve a conexão ou já responde 500 quando ela não foi injetada.
func FromContext(c *gin.Context) (*gorm.DB, bool) {
	db := DBInstance(c)
	if db == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "db não configurado no contexto"})
		return nil, false
	}
	return db, true
}
