package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	dbpkg "painel/db"
	"painel/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// ------------------------------
// Dashboard - Sentimento
// ------------------------------

type sentimentoCount struct {
	Sentimento string `json:"sentimento"`
	Count      int64  `json:"count"`
}

type resumoResponse struct {
	From              string  `json:"from"`
	To                string  `json:"to"`
	Total             int64   `json:"total"`
	Positivo          int64   `json:"positivo"`
	Neutro            int64   `json:"neutro"`
	Negativo          int64   `json:"negativo"`
	ProporcaoNegativa float64 `json:"proporcao_negativa"`
	AlertasAtivos     int64   `json:"alertas_ativos"`
}

// dashboardBase filtra comentarios pelo período [from, to] e pela plataforma opcional.
func dashboardBase(c *gin.Context, db *gorm.DB, from, to time.Time) *gorm.DB {
	q := db.Table("comentarios").
		Where("publicado_em >= ? AND publicado_em < ?", from, to.AddDate(0, 0, 1))
	if p := strings.TrimSpace(c.Query("plataforma")); p != "" {
		q = q.Where("plataforma = ?", strings.ToLower(p))
	}
	return q
}

// GET /api/dashboard/resumo
// Query params: from, to (YYYY-MM-DD, default últimos 7 dias), plataforma
func GetDashboardResumo(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	var rows []sentimentoCount
	if err := dashboardBase(c, db, from, to).
		Select("sentimento, count(*) as count").
		Group("sentimento").
		Scan(&rows).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	resp := resumoResponse{From: from.Format("2006-01-02"), To: to.Format("2006-01-02")}
	for _, r := range rows {
		resp.Total += r.Count
		switch r.Sentimento {
		case models.SENTIMENTO_POSITIVO:
			resp.Positivo = r.Count
		case models.SENTIMENTO_NEUTRO:
			resp.Neutro = r.Count
		case models.SENTIMENTO_NEGATIVO:
			resp.Negativo = r.Count
		}
	}
	if resp.Total > 0 {
		resp.ProporcaoNegativa = float64(resp.Negativo) / float64(resp.Total)
	}

	if err := db.Model(&models.AlertaCriseNotificacao{}).
		Where("status = ?", models.ALERTA_STATUS_ATIVO).
		Count(&resp.AlertasAtivos).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, resp)
}

type perDayRow struct {
	Day        string `json:"day"`
	Sentimento string `json:"-"`
	Count      int64  `json:"count"`
}

type perDayPoint struct {
	Day      string `json:"day"`
	Positivo int64  `json:"positivo"`
	Neutro   int64  `json:"neutro"`
	Negativo int64  `json:"negativo"`
	Total    int64  `json:"total"`
}

// GET /api/dashboard/por-dia
// Retorna uma série diária por sentimento (inclui dias com 0).
func GetDashboardPorDia(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	var rows []perDayRow
	if err := dashboardBase(c, db, from, to).
		Select(fmt.Sprintf("%s as day, sentimento, count(*) as count", dayExpr(db, "publicado_em"))).
		Group("day, sentimento").
		Order("day asc").
		Scan(&rows).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"series": fillDailySeries(from, to, rows),
	})
}

func fillDailySeries(from time.Time, to time.Time, rows []perDayRow) []perDayPoint {
	m := map[string]*perDayPoint{}
	for _, r := range rows {
		if r.Day == "" {
			continue
		}
		p, ok := m[r.Day]
		if !ok {
			p = &perDayPoint{Day: r.Day}
			m[r.Day] = p
		}
		switch r.Sentimento {
		case models.SENTIMENTO_POSITIVO:
			p.Positivo += r.Count
		case models.SENTIMENTO_NEUTRO:
			p.Neutro += r.Count
		case models.SENTIMENTO_NEGATIVO:
			p.Negativo += r.Count
		}
		p.Total += r.Count
	}

	var out []perDayPoint
	cur := startOfDay(from)
	end := startOfDay(to)
	for !cur.After(end) {
		key := cur.Format("2006-01-02")
		if p, ok := m[key]; ok {
			out = append(out, *p)
		} else {
			out = append(out, perDayPoint{Day: key})
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}

type plataformaRow struct {
	Plataforma string `json:"plataforma"`
	Sentimento string `json:"-"`
	Count      int64  `json:"count"`
}

type plataformaResumo struct {
	Plataforma string `json:"plataforma"`
	Positivo   int64  `json:"positivo"`
	Neutro     int64  `json:"neutro"`
	Negativo   int64  `json:"negativo"`
	Total      int64  `json:"total"`
}

// GET /api/dashboard/plataformas
func GetDashboardPlataformas(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	var rows []plataformaRow
	if err := dashboardBase(c, db, from, to).
		Select("plataforma, sentimento, count(*) as count").
		Group("plataforma, sentimento").
		Order("plataforma asc").
		Scan(&rows).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var out []plataformaResumo
	idx := map[string]int{}
	for _, r := range rows {
		i, ok := idx[r.Plataforma]
		if !ok {
			i = len(out)
			idx[r.Plataforma] = i
			out = append(out, plataformaResumo{Plataforma: r.Plataforma})
		}
		switch r.Sentimento {
		case models.SENTIMENTO_POSITIVO:
			out[i].Positivo += r.Count
		case models.SENTIMENTO_NEUTRO:
			out[i].Neutro += r.Count
		case models.SENTIMENTO_NEGATIVO:
			out[i].Negativo += r.Count
		}
		out[i].Total += r.Count
	}

	RespondSuccess(c, gin.H{
		"from":        from.Format("2006-01-02"),
		"to":          to.Format("2006-01-02"),
		"plataformas": out,
	})
}
