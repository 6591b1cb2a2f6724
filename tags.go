package versioning

import (
	"reflect"
	"strings"
)

type structTag struct {
	ignore   bool
	identity bool
}

func parseTag(field reflect.StructField) structTag {
	tag := field.Tag.Get("version")
	if tag == "" {
		return structTag{}
	}

	st := structTag{}
	parts := strings.Split(tag, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "-":
			st.ignore = true
		case "id":
			st.identity = true
		}
	}

	return st
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return ""
	}
	name := strings.Split(tag, ",")[0]
	if name == "-" {
		return ""
	}
	return name
}
