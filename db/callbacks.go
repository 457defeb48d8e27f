package db

import (
	"encoding/json"
	"reflect"
	"time"

	"painel/realtime"

	"github.com/jinzhu/gorm"
)

// RegisterRealtimeCallbacks publica INSERT/UPDATE/DELETE feitos por este
// processo. Usado quando não há LISTEN/NOTIFY do postgres.
func RegisterRealtimeCallbacks(db *gorm.DB, pub realtime.Publisher) {
	watched := map[string]bool{}
	for _, t := range Tables {
		watched[t] = true
	}

	publish := func(kind string) func(*gorm.Scope) {
		return func(scope *gorm.Scope) {
			if scope.HasError() {
				return
			}
			table := scope.TableName()
			if !watched[table] {
				return
			}
			if kind != realtime.EVENT_INSERT && scope.DB().RowsAffected == 0 {
				return
			}

			record := scopeRecord(scope)
			c := realtime.Change{
				Schema:          realtime.DEFAULT_SCHEMA,
				Table:           table,
				Type:            kind,
				CommitTimestamp: time.Now().UTC(),
			}
			if kind == realtime.EVENT_DELETE {
				c.OldRecord = record
			} else {
				c.Record = record
			}
			pub.Publish(c)
		}
	}

	db.Callback().Create().After("gorm:create").Register("painel:realtime_insert", publish(realtime.EVENT_INSERT))
	db.Callback().Update().After("gorm:update").Register("painel:realtime_update", publish(realtime.EVENT_UPDATE))
	db.Callback().Delete().After("gorm:delete").Register("painel:realtime_delete", publish(realtime.EVENT_DELETE))
}

// scopeRecord serializa o valor do scope com as tags json (que são os nomes
// das colunas) e sobrepõe os atributos de um Updates.
func scopeRecord(scope *gorm.Scope) map[string]any {
	record := map[string]any{}

	v := reflect.Indirect(reflect.ValueOf(scope.Value))
	if v.Kind() == reflect.Struct {
		if b, err := json.Marshal(scope.Value); err == nil {
			_ = json.Unmarshal(b, &record)
		}
	}

	if attrs, ok := scope.InstanceGet("gorm:update_attrs"); ok {
		if m, ok := attrs.(map[string]interface{}); ok {
			for k, val := range m {
				record[k] = normalizeValue(val)
			}
		}
	}
	return record
}

// normalizeValue deixa o valor no mesmo formato que viria de um NOTIFY.
func normalizeValue(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
