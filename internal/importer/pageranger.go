package importer

// PageRanger imports data left behind by the PageRanger plugin. Everything
// PageRanger stores maps key-for-key, so no transform is needed.
func PageRanger() Source {
	return Source{
		Slug:          "pageranger",
		Name:          "PageRanger",
		DetectPattern: `\_pageranger\_%`,
		CloneKeys: []CloneSpec{
			{OldKey: "_pageranger_title", NewField: "title"},
			{OldKey: "_pageranger_desc", NewField: "metadesc"},
			{OldKey: "_pageranger_canonical", NewField: "canonical"},
			{OldKey: "_pageranger_noindex", NewField: "robots-noindex", Convert: []ConvertPair{{From: "yes", To: "1"}}},
			{OldKey: "_pageranger_nofollow", NewField: "robots-nofollow", Convert: []ConvertPair{{From: "yes", To: "1"}}},
		},
	}
}
