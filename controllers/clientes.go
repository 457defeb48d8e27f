package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	dbpkg "painel/db"
	"painel/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const EXPORT_MAX_ROWS = 10000

// clienteQuery aplica os filtros comuns à listagem e à exportação.
func clienteQuery(c *gin.Context, db *gorm.DB) *gorm.DB {
	query := db.Model(&models.CadastroCliente{})
	if tipo := strings.ToUpper(strings.TrimSpace(c.Query("tipo_pessoa"))); tipo != "" {
		query = query.Where("tipo_pessoa = ?", tipo)
	}
	if bairro := strings.TrimSpace(c.Query("bairro")); bairro != "" {
		query = query.Where("lower(bairro) = ?", strings.ToLower(bairro))
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := likeTerm(q)
		query = query.Where("lower(nome) LIKE ? OR lower(nome_fantasia) LIKE ? OR lower(email) LIKE ? OR cpf LIKE ? OR cnpj LIKE ?",
			like, like, like, like, like)
	}
	return query
}

// GET /api/clientes
// Query params: tipo_pessoa=PF|PJ, bairro, status, q, limit (max 500), offset
func ListClientes(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	limit := clampInt(queryInt(c, "limit", 50), 1, 500)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)
	query := clienteQuery(c, db)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var clientes []models.CadastroCliente
	if err := query.Order("nome asc").Limit(limit).Offset(offset).Find(&clientes).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"clientes": clientes,
	})
}

func GetCliente(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var cliente models.CadastroCliente
	if err := db.First(&cliente, id).Error; err != nil {
		RespondError(c, "cliente não encontrado", http.StatusNotFound)
		return
	}
	RespondSuccess(c, cliente)
}

// validateCliente normaliza, valida e confere se o documento já existe.
func validateCliente(c *gin.Context, db *gorm.DB, cliente *models.CadastroCliente) bool {
	cliente.Normalize()
	if invalid := cliente.Invalid(); invalid != "" {
		RespondError(c, "Campo inválido: "+invalid, http.StatusBadRequest)
		return false
	}

	col, doc := cliente.Documento()
	var count int64
	if err := db.Model(&models.CadastroCliente{}).
		Where(col+" = ? AND id <> ?", doc, cliente.ID).
		Count(&count).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return false
	}
	if count > 0 {
		RespondError(c, strings.ToUpper(col)+" já cadastrado", http.StatusConflict)
		return false
	}
	return true
}

func CreateCliente(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)

	var cliente models.CadastroCliente
	if err := c.ShouldBindJSON(&cliente); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	cliente.ID = 0
	cliente.CriadoPor = user.ID

	if !validateCliente(c, db, &cliente) {
		return
	}
	if err := db.Create(&cliente).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, cliente)
}

// PUT /api/clientes/:id
// O corpo é aplicado por cima do registro atual.
func UpdateCliente(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var cliente models.CadastroCliente
	if err := db.First(&cliente, id).Error; err != nil {
		RespondError(c, "cliente não encontrado", http.StatusNotFound)
		return
	}
	criadoPor, createdAt := cliente.CriadoPor, cliente.CreatedAt

	if err := c.ShouldBindJSON(&cliente); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	cliente.ID = id
	cliente.CriadoPor = criadoPor
	cliente.CreatedAt = createdAt

	if !validateCliente(c, db, &cliente) {
		return
	}
	if err := db.Save(&cliente).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, cliente)
}

func DeleteCliente(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	res := db.Delete(&models.CadastroCliente{ID: id})
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusBadRequest)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "cliente não encontrado", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"ok": true, "id": id})
}

// GET /api/clientes/export.csv (mesmos filtros da listagem)
func ExportClientesCSV(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var clientes []models.CadastroCliente
	if err := clienteQuery(c, db).Order("nome asc").Limit(EXPORT_MAX_ROWS).Find(&clientes).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="clientes-%s.csv"`, now().Format("20060102")))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Comma = ';'
	_ = w.Write([]string{"id", "tipo_pessoa", "nome", "nome_fantasia", "documento", "email", "telefone",
		"cep", "logradouro", "numero", "bairro", "cidade", "uf", "status"})
	for _, cl := range clientes {
		_, doc := cl.Documento()
		_ = w.Write([]string{
			fmt.Sprint(cl.ID), cl.TipoPessoa, cl.Nome, cl.NomeFantasia, doc, cl.Email, cl.Telefone,
			cl.CEP, cl.Logradouro, cl.Numero, cl.Bairro, cl.Cidade, cl.UF, cl.Status,
		})
	}
	w.Flush()
}
