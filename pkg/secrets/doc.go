// Package secrets resolves ${secret:name} references in configuration
// values, such as the headers sent to an HTTP model:
//
//	model:
//	  type: http
//	  url: https://models.internal/decide
//	  secrets_dir: /run/secrets
//	  headers:
//	    Authorization: "Bearer ${secret:model-token}"
//
// Providers are tried in order. The environment provider reads
// JUDGMENT_SECRET_MODEL_TOKEN for the secret "model-token"; the file
// provider reads <secrets_dir>/model-token, which must have mode 0600 or
// 0400.
package secrets
