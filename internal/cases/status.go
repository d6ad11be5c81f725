package cases

// Status drives which stage handler applies to a case.
type Status string

const (
	StatusInscricaoDocumentos          Status = "inscricao_documentos"
	StatusTriagemAgendada              Status = "triagem_agendada"
	StatusEncaminharParaPlantao        Status = "encaminhar_para_plantao"
	StatusEmAtendimentoPlantao         Status = "em_atendimento_plantao"
	StatusEncaminharParaPB             Status = "encaminhar_para_pb"
	StatusAguardandoInfoHorarios       Status = "aguardando_info_horarios"
	StatusCadastrarHorarioPsicomanager Status = "cadastrar_horario_psicomanager"
	StatusEmAtendimentoPB              Status = "em_atendimento_pb"
	StatusAlta                         Status = "alta"
	StatusDesistencia                  Status = "desistencia"
)

// AllStatuses lists every status in journey order. Kanban columns follow it.
var AllStatuses = []Status{
	StatusInscricaoDocumentos,
	StatusTriagemAgendada,
	StatusEncaminharParaPlantao,
	StatusEmAtendimentoPlantao,
	StatusEncaminharParaPB,
	StatusAguardandoInfoHorarios,
	StatusCadastrarHorarioPsicomanager,
	StatusEmAtendimentoPB,
	StatusAlta,
	StatusDesistencia,
}

var transitions = map[Status][]Status{
	StatusInscricaoDocumentos:          {StatusTriagemAgendada, StatusDesistencia},
	StatusTriagemAgendada:              {StatusEncaminharParaPlantao, StatusEncaminharParaPB, StatusDesistencia},
	StatusEncaminharParaPlantao:        {StatusEmAtendimentoPlantao, StatusDesistencia},
	StatusEmAtendimentoPlantao:         {StatusEncaminharParaPB, StatusAlta, StatusDesistencia},
	StatusEncaminharParaPB:             {StatusAguardandoInfoHorarios, StatusDesistencia},
	StatusAguardandoInfoHorarios:       {StatusCadastrarHorarioPsicomanager},
	StatusCadastrarHorarioPsicomanager: {StatusEmAtendimentoPB},
	StatusEmAtendimentoPB:              {StatusAlta, StatusDesistencia, StatusEncaminharParaPB},
	StatusAlta:                         nil,
	StatusDesistencia:                  nil,
}

var titles = map[Status]string{
	StatusInscricaoDocumentos:          "Inscrição e documentos",
	StatusTriagemAgendada:              "Triagem agendada",
	StatusEncaminharParaPlantao:        "Encaminhar para plantão",
	StatusEmAtendimentoPlantao:         "Em atendimento (plantão)",
	StatusEncaminharParaPB:             "Encaminhar para PB",
	StatusAguardandoInfoHorarios:       "Aguardando info de horários",
	StatusCadastrarHorarioPsicomanager: "Cadastrar horário no Psicomanager",
	StatusEmAtendimentoPB:              "Em atendimento (PB)",
	StatusAlta:                         "Alta",
	StatusDesistencia:                  "Desistência",
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal statuses accept no further stage commits.
func (s Status) Terminal() bool {
	return s == StatusAlta || s == StatusDesistencia
}

func (s Status) Title() string {
	if t, ok := titles[s]; ok {
		return t
	}
	return string(s)
}

// Next returns the statuses reachable from s.
func (s Status) Next() []Status {
	return append([]Status(nil), transitions[s]...)
}

// CanTransition reports whether from → to is in the adjacency list.
func CanTransition(from, to Status) bool {
	for _, n := range transitions[from] {
		if n == to {
			return true
		}
	}
	return false
}
