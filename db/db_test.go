package db

import (
	"sync"
	"testing"
	"time"

	"painel/config"
	"painel/models"
	"painel/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (r *recorder) Publish(c realtime.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) all() []realtime.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Change(nil), r.changes...)
}

func TestConnectAndMigrateSqlite(t *testing.T) {
	var c config.Configuration
	c.Database = "sqlite3"
	c.DbPath = ":memory:"
	SetConfigurations(c)

	database, err := Connect()
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, Migrate(database))
	for _, table := range Tables {
		assert.True(t, database.HasTable(table), table)
	}
}

func TestRealtimeCallbacks(t *testing.T) {
	var c config.Configuration
	c.DbPath = ":memory:"
	SetConfigurations(c)

	database, err := Connect()
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, Migrate(database))

	rec := &recorder{}
	RegisterRealtimeCallbacks(database, rec)

	now := time.Now()
	com := models.Comentario{Plataforma: "instagram", Texto: "buraco na rua", Sentimento: models.SENTIMENTO_NEGATIVO, PublicadoEm: &now}
	require.NoError(t, database.Create(&com).Error)

	require.NoError(t, database.Model(&models.Comentario{ID: com.ID}).
		Updates(map[string]interface{}{"sentimento": models.SENTIMENTO_NEUTRO}).Error)

	// update sem linhas afetadas não publica
	require.NoError(t, database.Model(&models.Comentario{}).
		Where("id = ?", com.ID+100).
		Updates(map[string]interface{}{"sentimento": models.SENTIMENTO_POSITIVO}).Error)

	require.NoError(t, database.Delete(&models.Comentario{ID: com.ID}).Error)

	changes := rec.all()
	require.Len(t, changes, 3)

	assert.Equal(t, realtime.EVENT_INSERT, changes[0].Type)
	assert.Equal(t, "comentarios", changes[0].Table)
	assert.Equal(t, "public", changes[0].Schema)
	assert.Equal(t, "negativo", changes[0].Record["sentimento"])
	assert.Equal(t, float64(com.ID), changes[0].Record["id"])

	assert.Equal(t, realtime.EVENT_UPDATE, changes[1].Type)
	assert.Equal(t, "neutro", changes[1].Record["sentimento"])

	assert.Equal(t, realtime.EVENT_DELETE, changes[2].Type)
	assert.Equal(t, float64(com.ID), changes[2].OldRecord["id"])

	f := realtime.Filter{Table: "comentarios", Filter: "sentimento=eq.negativo"}
	assert.True(t, f.Matches(changes[0]))
	assert.False(t, f.Matches(changes[1]))
}

func TestRealtimeCallbacksHideSecrets(t *testing.T) {
	var c config.Configuration
	c.DbPath = ":memory:"
	SetConfigurations(c)

	database, err := Connect()
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, Migrate(database))

	rec := &recorder{}
	RegisterRealtimeCallbacks(database, rec)

	u := models.UsuarioSistema{Nome: "Ana", Email: "ana@prefeitura.gov.br", SenhaHash: "hash", Perfil: models.PERFIL_ADMIN, Ativo: true}
	require.NoError(t, database.Create(&u).Error)

	changes := rec.all()
	require.Len(t, changes, 1)
	_, hasSenha := changes[0].Record["senha_hash"]
	assert.False(t, hasSenha)
	assert.Equal(t, "ana@prefeitura.gov.br", changes[0].Record["email"])
}
