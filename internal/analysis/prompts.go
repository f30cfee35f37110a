package analysis

// atAGlancePrompt asks for the quick structured summary. The model must
// return bare JSON matching domain.AtAGlance.
const atAGlancePrompt = `Analyze this academic paper and provide a structured summary in JSON format.

Return ONLY valid JSON matching this exact structure (no markdown, no extra text):
{
  "title": "The paper's full title",
  "authors": ["author 1", "author 2"],
  "affiliations": ["affiliation 1"],
  "abstract": "The paper's abstract, condensed to 3-5 sentences",
  "keywords": ["keyword 1", "keyword 2"],
  "introduction": "2-3 sentences summarizing the introduction",
  "related_work": "2-3 sentences summarizing related work",
  "problem_statement": "The problem the paper addresses, in 1-2 sentences",
  "methodology": "2-4 sentences describing the research methodology in plain English",
  "results": "The key findings, in 2-3 sentences",
  "discussion": "2-3 sentences on the interpretation of the results",
  "limitations": ["limitation 1", "limitation 2"],
  "future_work": ["future direction 1"],
  "conclusion": "The paper's conclusion, in 1-2 sentences"
}

Use "Unable to extract" for any field the text does not cover.

Paper text:
`

// inDepthPrompt asks for the comprehensive per-section analysis. The
// model must return bare JSON matching domain.InDepth.
const inDepthPrompt = `You are an expert research analyst. Produce a comprehensive, section-by-section analysis of this academic paper.

Return ONLY valid JSON matching this exact structure (no markdown, no extra text):
{
  "introduction": "Detailed analysis of the introduction and motivation (1-2 paragraphs)",
  "related_work": "Detailed analysis of how this work relates to prior work (1-2 paragraphs)",
  "problem_statement": "Detailed analysis of the problem formulation (1-2 paragraphs)",
  "methodology": "Detailed analysis of the methods, design choices and their tradeoffs (2-3 paragraphs)",
  "results": "Detailed analysis of the experiments and findings (2-3 paragraphs)",
  "discussion": "Detailed analysis of the interpretation and implications (1-2 paragraphs)",
  "limitations": "Detailed discussion of the limitations (1 paragraph)",
  "conclusion_future_work": "Detailed analysis of the conclusion and future directions (1 paragraph)"
}

Paper text:
`
