package config

// schemaJSON is the JSON schema opfield.yaml is checked against after decoding.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "enum": [1]},
    "settings": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "OP_CLI_PATH": {"type": "string", "minLength": 1},
        "OP_SERVICE_ACCOUNT_TOKEN": {"type": "string"},
        "OP_COMMAND_TIMEOUT": {
          "oneOf": [
            {"type": "number", "exclusiveMinimum": 0},
            {"type": "string", "minLength": 1}
          ]
        }
      }
    },
    "vaults": {
      "type": "array",
      "items": {"type": "string", "minLength": 1, "pattern": "^[^/]+$"},
      "uniqueItems": true
    },
    "keyring": {"type": "boolean"},
    "database": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "driver": {"type": "string", "enum": ["postgres", "postgresql", "mysql", "mariadb"]},
        "dsn": {"type": "string"},
        "table": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
        "max_length": {"type": "integer", "minimum": 1}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "addr": {"type": "string"},
        "path": {"type": "string", "pattern": "^/"}
      }
    }
  }
}`
