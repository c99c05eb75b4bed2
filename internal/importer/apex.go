package importer

// ApexSEO imports data left behind by the Apex SEO plugin. Apex stores a
// visibility state instead of a noindex flag; both non-public states convert
// to noindex. Unrecognised states copy verbatim rather than guessing.
func ApexSEO() Source {
	return Source{
		Slug:          "apex-seo",
		Name:          "Apex SEO",
		DetectPattern: `\_apex\_%`,
		CloneKeys: []CloneSpec{
			{OldKey: "_apex_page_title", NewField: "title"},
			{OldKey: "_apex_meta_desc", NewField: "metadesc"},
			{OldKey: "_apex_keywords", NewField: "focus-keyword"},
			{OldKey: "_apex_visibility", NewField: "robots-noindex", Convert: []ConvertPair{
				{From: "hidden", To: "1"},
				{From: "private", To: "1"},
			}},
		},
	}
}
