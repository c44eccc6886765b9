// internal/workers/application/submit-application/schema.go
package submitapplication

import "quote-workflow/internal/common/validation"

// applicationSchema is the structural contract of the quote/save payload.
// Field rules live in Validate; this only guards the shape.
var applicationSchema = validation.MustCompile("application", `{
  "type": "object",
  "required": ["quote_id", "program_code", "state", "address", "answers", "policy_data"],
  "properties": {
    "quote_id": {"type": "string", "minLength": 1},
    "program_code": {"enum": ["RAP", "RAS", "rap", "ras"]},
    "state": {"type": "string", "minLength": 2},
    "gross_annual_income": {"type": "number", "minimum": 0},
    "firm_name": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "maxItems": 4, "items": {"type": "string"}}
      ]
    },
    "address": {
      "type": "object",
      "required": ["address_line1", "city", "state", "zipcode"]
    },
    "mailing_address": {"type": "object"},
    "answers": {"type": "object", "minProperties": 7},
    "policy_data": {
      "type": "object",
      "required": ["annual_premium", "total_amount", "policy_term"],
      "properties": {
        "annual_premium": {"type": "number", "minimum": 0},
        "total_amount": {"type": "number", "minimum": 0},
        "policy_term": {"type": "integer", "minimum": 1}
      }
    }
  }
}`)
