package commands

import (
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// ProcessActionParams substitutes placeholders into the raw action parameters
// in two phases. Phase 1 substitutes every parameter against resolved. The
// processed file path is then stored in resolved under "file_path", and phase
// 2 substitutes the phase 1 output of phase2Keys again so they can reference
// the resolved path.
// resolved is updated in place.
func ProcessActionParams(
	raw entities.ActionParams,
	resolved entities.PlaceholderMap,
	phase2Keys []string,
) (entities.ActionParams, []string) {
	log := newActionLog(resolved[entities.KeyRepoFullName])
	processed := raw.Clone()

	for i, param := range processed {
		value := entities.Substitute(param.Value, resolved)
		if value != param.Value {
			log.Debug("Processed %q: %q -> %q", param.Key, preview(param.Value), preview(value))
		}
		warnUnresolved(log, param.Key, value)
		processed[i].Value = value
	}

	if path, ok := processedFilePath(processed); ok {
		if previous, had := resolved[entities.KeyFilePath]; !had || previous != path {
			log.Debug("Set {{%s}} to %q", entities.KeyFilePath, path)
		}
		resolved[entities.KeyFilePath] = path
	}

	for _, key := range phase2Keys {
		current, ok := processed.Get(key)
		if !ok {
			continue
		}
		value := entities.Substitute(current, resolved)
		if value != current {
			log.Debug("Re-processed %q: %q -> %q", key, preview(current), preview(value))
		}
		processed.Set(key, value)
	}

	return processed, log.Lines()
}

func processedFilePath(params entities.ActionParams) (string, bool) {
	if path, ok := params.Get(entities.ParamFilePath); ok {
		return path, true
	}
	return params.Get(entities.ParamTargetFilePath)
}

// warnUnresolved flags tokens left after phase 1 whose names are not engine
// owned, which usually means a misspelled placeholder name.
func warnUnresolved(log *actionLog, key, value string) {
	for _, name := range entities.Tokens(value) {
		if entities.IsReservedKey(name) {
			continue
		}
		log.Warn("Parameter %q still contains {{%s}}; no placeholder with that name was resolved", key, name)
	}
}
