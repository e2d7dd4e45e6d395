package email

// PreviewData holds sample values for rendering each template outside of a
// real send.
var PreviewData = map[Template]map[string]string{
	TemplateWelcome: {
		"UserFirstName": "Ada",
		"AppName":       "Storefront",
	},
}
