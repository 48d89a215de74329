package registry

const obo = "http://purl.obolibrary.org/obo/"

var defaultEntries = []Entry{
	// Vocabularies used in mapping records themselves
	{Prefix: "skos", Pattern: `^\w+$`, URIPrefix: "http://www.w3.org/2004/02/skos/core#"},
	{Prefix: "owl", Pattern: `^\w+$`, URIPrefix: "http://www.w3.org/2002/07/owl#"},
	{Prefix: "oboinowl", Synonyms: []string{"oboInOwl"}, Pattern: `^\w+$`, URIPrefix: "http://www.geneontology.org/formats/oboInOwl#"},
	{Prefix: "semapv", Pattern: `^\w+$`, URIPrefix: "https://w3id.org/semapv/vocab/"},
	{Prefix: "orcid", Pattern: `^\d{4}-\d{4}-\d{4}-\d{3}[0-9X]$`, URIPrefix: "https://orcid.org/"},

	// Biomedical vocabularies
	{Prefix: "mesh", Synonyms: []string{"msh", "MeSH"}, Pattern: `^[CDFGMQT]\d+$`, URIPrefix: "http://id.nlm.nih.gov/mesh/"},
	{Prefix: "doid", Pattern: `^\d+$`, URIPrefix: obo + "DOID_", Banana: "DOID:"},
	{Prefix: "uberon", Pattern: `^\d+$`, URIPrefix: obo + "UBERON_", Banana: "UBERON:"},
	{Prefix: "chebi", Pattern: `^\d+$`, URIPrefix: obo + "CHEBI_", Banana: "CHEBI:"},
	{Prefix: "go", Synonyms: []string{"gobp", "gomf", "gocc"}, Pattern: `^\d{7}$`, URIPrefix: obo + "GO_", Banana: "GO:"},
	{Prefix: "hp", Synonyms: []string{"hpo"}, Pattern: `^\d{7}$`, URIPrefix: obo + "HP_", Banana: "HP:"},
	{Prefix: "mondo", Pattern: `^\d{7}$`, URIPrefix: obo + "MONDO_", Banana: "MONDO:"},
	{Prefix: "cl", Pattern: `^\d{7}$`, URIPrefix: obo + "CL_", Banana: "CL:"},
	{Prefix: "efo", Pattern: `^\d{7}$`, URIPrefix: "http://www.ebi.ac.uk/efo/EFO_", Banana: "EFO:"},
	{Prefix: "bto", Pattern: `^\d{7}$`, URIPrefix: obo + "BTO_", Banana: "BTO:"},
	{Prefix: "clo", Pattern: `^\d{7}$`, URIPrefix: obo + "CLO_", Banana: "CLO:"},
	{Prefix: "vo", Pattern: `^\d{7}$`, URIPrefix: obo + "VO_", Banana: "VO:"},
	{Prefix: "maxo", Pattern: `^\d{7}$`, URIPrefix: obo + "MAXO_", Banana: "MAXO:"},
	{Prefix: "ncit", Synonyms: []string{"nci", "ncithesaurus"}, Pattern: `^[A-Z]*\d+$`, URIPrefix: "http://purl.obolibrary.org/obo/NCIT_"},
	{Prefix: "ncbitaxon", Synonyms: []string{"taxonomy", "ncbi.taxon"}, Pattern: `^\d+$`, URIPrefix: obo + "NCBITaxon_", Banana: "NCBITaxon:"},
	{Prefix: "hgnc", Pattern: `^\d{1,5}$`, URIPrefix: "https://www.genenames.org/data/gene-symbol-report/#!/hgnc_id/HGNC:", Banana: "HGNC:"},
	{Prefix: "uniprot", Synonyms: []string{"uniprotkb"}, Pattern: `^[A-Z0-9]{6,10}(-\d+)?$`, URIPrefix: "https://purl.uniprot.org/uniprot/"},
	{Prefix: "drugbank", Pattern: `^DB\d{5}$`, URIPrefix: "https://go.drugbank.com/drugs/"},
	{Prefix: "edam", Pattern: `^(data|topic|operation|format)_\d{4}$`, URIPrefix: "http://edamontology.org/"},
	{Prefix: "agrovoc", Pattern: `^c_[a-z0-9]+$`, URIPrefix: "http://aims.fao.org/aos/agrovoc/"},
	{Prefix: "umls", Pattern: `^C\d{7}$`, URIPrefix: "https://uts.nlm.nih.gov/uts/umls/concept/"},
	{Prefix: "wikidata", Synonyms: []string{"wd"}, Pattern: `^[PQ]\d+$`, URIPrefix: "http://www.wikidata.org/entity/"},
	{Prefix: "reactome", Pattern: `^R-[A-Z]{3}-\d+$`, URIPrefix: "https://reactome.org/content/detail/"},
	{Prefix: "wikipathways", Pattern: `^WP\d+$`, URIPrefix: "http://identifiers.org/wikipathways/"},
	{Prefix: "kegg.pathway", Pattern: `^\w{2,4}\d{5}$`, URIPrefix: "https://www.kegg.jp/entry/"},
	{Prefix: "ccle", Pattern: `^\w+$`, URIPrefix: "https://www.cbioportal.org/patient?studyId=ccle_broad_2019&caseId="},
	{Prefix: "cellosaurus", Synonyms: []string{"cvcl"}, Pattern: `^[A-Z0-9]{4}$`, URIPrefix: "https://www.cellosaurus.org/CVCL_", Banana: "CVCL_"},
}
