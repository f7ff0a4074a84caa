package reach

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// pluginParam is one @param block of a plugin header that names an asset.
type pluginParam struct {
	name string
	typ  string
	dir  string
	def  string
}

// pluginHeader is the parsed /*: ... */ annotation block of a plugin.
type pluginHeader struct {
	requiredAssets []string
	params         []pluginParam
}

// parsePluginHeader scans the first /*: block of a plugin source for
// @requiredAssets entries and @param blocks typed file or animation.
func parsePluginHeader(src string) pluginHeader {
	var h pluginHeader

	start := strings.Index(src, "/*:")
	if start < 0 {
		return h
	}
	body := src[start+3:]
	if end := strings.Index(body, "*/"); end >= 0 {
		body = body[:end]
	}

	var cur *pluginParam
	flush := func() {
		if cur != nil && cur.name != "" && (cur.typ == "file" || cur.typ == "animation") {
			h.params = append(h.params, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if !strings.HasPrefix(line, "@") {
			continue
		}
		tag, val, _ := strings.Cut(line, " ")
		val = strings.TrimSpace(val)

		switch tag {
		case "@requiredAssets":
			if val != "" {
				h.requiredAssets = append(h.requiredAssets, val)
			}
		case "@param":
			flush()
			cur = &pluginParam{name: val}
		case "@type":
			if cur != nil {
				cur.typ = strings.ToLower(val)
			}
		case "@dir":
			if cur != nil {
				cur.dir = val
			}
		case "@default":
			if cur != nil {
				cur.def = val
			}
		}
	}
	flush()
	return h
}

// pluginList extracts the JSON array assigned to $plugins in js/plugins.js.
func pluginList(file string, src []byte) (value, error) {
	s := string(src)
	decl := strings.Index(s, "$plugins")
	if decl < 0 {
		return value{}, &FieldError{File: file, Path: "$plugins", Err: ErrMissingField}
	}
	open := strings.Index(s[decl:], "[")
	closing := strings.LastIndex(s, "]")
	if open < 0 || closing < decl+open {
		return value{}, &FieldError{File: file, Path: "$plugins", Err: ErrMalformed}
	}
	doc, err := parseDocument(file, []byte(s[decl+open:closing+1]))
	if err != nil {
		return value{}, err
	}
	doc.path = "$plugins"
	return doc, nil
}

// lookupKey finds a string member of obj by exact key. Plugin parameter names
// may contain characters with meaning in gjson paths.
func lookupKey(obj gjson.Result, key string) (string, bool) {
	var (
		out   string
		found bool
	)
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str != key {
			return true
		}
		if v.Type == gjson.String {
			out, found = v.Str, true
		}
		return false
	})
	return out, found
}

// assetPath strips the extension off a project-relative asset path so that
// it matches both plain and scrambled copies.
func assetPath(p string) string {
	p = path.Clean(strings.ReplaceAll(strings.TrimPrefix(p, "/"), `\`, "/"))
	return strings.TrimSuffix(p, path.Ext(p))
}

// analyzePlugins records the assets that enabled plugins declare or are
// configured with. A project without js/plugins.js has no plugin assets.
func analyzePlugins(set *Set, root string, logger *slog.Logger) error {
	jsDir := filepath.Join(root, "js")
	listFile := filepath.Join(jsDir, "plugins.js")

	src, err := os.ReadFile(listFile)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no plugin list", "path", listFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin list: %w", err)
	}

	plugins, err := pluginList(listFile, src)
	if err != nil {
		return err
	}

	return plugins.each(func(p value) error {
		pluginName, err := p.field("name").str()
		if err != nil {
			return err
		}
		if status := p.field("status"); status.Exists() && status.Type == gjson.False {
			return nil
		}

		pluginFile := filepath.Join(jsDir, "plugins", pluginName+".js")
		body, err := os.ReadFile(pluginFile)
		if err != nil {
			logger.Warn("unable to read plugin", "plugin", pluginName, "path", pluginFile, "error", err)
			return nil
		}
		header := parsePluginHeader(string(body))

		for _, asset := range header.requiredAssets {
			set.Add(PluginAssets, assetPath(asset))
		}

		settings := p.field("parameters")
		for _, param := range header.params {
			val := param.def
			if configured, ok := lookupKey(settings.Result, param.name); ok {
				val = configured
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}

			switch {
			case param.typ == "animation":
				if id, err := strconv.ParseUint(val, 10, 64); err == nil {
					if id > 0 {
						set.AddAnimationID(id)
					}
					continue
				}
				set.Add(PluginAssets, assetPath(path.Join("img/animations", val)))
			case param.dir != "":
				set.Add(PluginAssets, assetPath(path.Join(param.dir, val)))
			default:
				logger.Debug("file parameter without @dir", "plugin", pluginName, "param", param.name)
			}
		}
		return nil
	})
}
