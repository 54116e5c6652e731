// Обёртка над инструментальной шиной VISA (github.com/jpoirier/visa).
// Транслирует статусы VISA в ошибки Go и проверяет очередь ошибок прибора.

package instruments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jpoirier/visa"
	"github.com/pkg/errors"
)

const bufferSize = 1024

// Транспорт инструментальной шины: запись команды и запрос ответа.
// Реализуется VisaObjectWrapper, в тестах подменяется фальшивой шиной.
type Transport interface {
	Query(cmd string) (string, error)
	Write(cmd string) error
	WriteWithoutCheck(cmd string) error
}

// Открыть менеджер ресурсов VISA по умолчанию.
func GetResourceManager() (visa.Session, error) {

	rm, visaStatus := visa.OpenDefaultRM()
	if visaStatus != visa.SUCCESS {
		return rm, errors.Wrap(ErrConnection, "unable to open default VISA resource manager")
	}
	return rm, nil
}

type VisaObjectWrapper struct {
	ResourceName    string
	ResourceManager *visa.Session
	instr           *visa.Object
	errorQuery      string
	info            map[string]string
	opened          bool
}

// Подключение к прибору и считывание идентификационной строки (*IDN?).
func (vw *VisaObjectWrapper) Init() error {

	instr, visaStatus := vw.ResourceManager.Open(vw.ResourceName, uint32(visa.NULL), uint32(visa.NULL))
	if visaStatus != visa.SUCCESS {
		context := fmt.Sprintf("an VISA error occurred while connect to \"%s\"", vw.ResourceName)
		return errors.Wrap(ErrConnection, context)
	}

	vw.instr = &instr
	vw.opened = true
	response, err := vw.Query("*IDN?")
	if err != nil {
		return errors.Wrap(ErrConnection, err.Error())
	}
	splitResponse := strings.Split(response, ",")
	if len(splitResponse) < 4 {
		return errors.Wrapf(ErrConnection,
			"device at \"%s\" returned malformed identification \"%s\"", vw.ResourceName, response)
	}
	vw.info = make(map[string]string, 4)
	vw.info["Manufacturer"] = strings.TrimSpace(splitResponse[0])
	vw.info["Model"] = strings.TrimSpace(splitResponse[1])
	vw.info["Serial"] = strings.TrimSpace(splitResponse[2])
	vw.info["Version"] = strings.TrimSpace(splitResponse[3])
	return nil
}

// Записать команду в прибор и считать ответ.
func (vw *VisaObjectWrapper) Query(cmd string) (string, error) {

	_, visaStatus := vw.instr.Write([]byte(cmd), uint32(len(cmd)))
	if visaStatus != visa.SUCCESS {
		statusDesc, _ := vw.instr.StatusDesc(visaStatus)
		visaErr := fmt.Errorf("%d, %s", visaStatus, statusDesc)
		context := fmt.Sprintf("an VISA error occurred while writing \"%s\" command", cmd)
		return "", errors.Wrap(visaErr, context)
	}

	bytes, _, visaStatus := vw.instr.Read(bufferSize)
	if visaStatus != visa.SUCCESS {
		statusDesc, _ := vw.instr.StatusDesc(visaStatus)
		visaErr := fmt.Errorf("%d, %s", visaStatus, statusDesc)
		context := fmt.Sprintf("an VISA error occurred while reading response after \"%s\" command", cmd)
		return "", errors.Wrap(visaErr, context)
	}
	response := strings.TrimRight(string(bytes), "\r\n\x00")
	if len(response) == 0 {
		return response, fmt.Errorf("get empty response from instr after \"%s\" command", cmd)
	}
	return response, nil
}

// Записать команду в прибор с последующей проверкой очереди ошибок.
func (vw *VisaObjectWrapper) Write(cmd string) error {

	err := vw.WriteWithoutCheck(cmd)
	if err != nil {
		return err
	}
	instrErr := vw.CheckErrors()
	if instrErr != nil {
		context := fmt.Sprintf("an instr error occurred while writing \"%s\" command", cmd)
		return errors.Wrap(instrErr, context)
	}
	return nil
}

// Записать команду в прибор без проверки очереди ошибок.
func (vw *VisaObjectWrapper) WriteWithoutCheck(cmd string) error {

	_, visaStatus := vw.instr.Write([]byte(cmd), uint32(len(cmd)))
	if visaStatus != visa.SUCCESS {
		statusDesc, _ := vw.instr.StatusDesc(visaStatus)
		visaErr := fmt.Errorf("%d, %s", visaStatus, statusDesc)
		context := fmt.Sprintf("an VISA error occurred while writing \"%s\" command", cmd)
		return errors.Wrap(visaErr, context)
	}
	return nil
}

// Проверить очередь ошибок прибора.
// Ответ SCPI: "код,сообщение"; ответ TSP (серия 2600B): "код<TAB>сообщение".
func (vw *VisaObjectWrapper) CheckErrors() error {

	if vw.errorQuery == "" {
		return nil
	}
	res, err := vw.Query(vw.errorQuery)
	if err != nil {
		return err
	}
	res = strings.ReplaceAll(res, "\"", "")
	sep := ","
	if strings.Contains(res, "\t") {
		sep = "\t"
	}
	splitRes := strings.SplitN(res, sep, 2)
	code, err := strconv.ParseFloat(strings.TrimSpace(splitRes[0]), 64)
	if err != nil {
		return fmt.Errorf("unparsable error queue response \"%s\"", res)
	}
	if code != 0 {
		return errors.New(res)
	}
	return nil
}

// Закрыть соединение с прибором. Повторный вызов безопасен.
func (vw *VisaObjectWrapper) Close() error {

	if !vw.opened {
		return nil
	}
	visaStatus := vw.instr.Close()
	vw.opened = false
	if visaStatus != visa.SUCCESS {
		return errors.Wrapf(ErrConnection, "unable to close \"%s\"", vw.ResourceName)
	}
	return nil
}

// Идентификационная информация прибора.
func (vw *VisaObjectWrapper) GetInfo() map[string]string {
	return vw.info
}

// Представить информацию о приборе в виде строки.
func (vw *VisaObjectWrapper) String() string {
	infoStr := fmt.Sprintf(
		"Manufacturer:\t%s\n"+
			"Model:\t\t%s\n"+
			"Serial:\t\t%s\n"+
			"Version:\t%s\n",
		vw.info["Manufacturer"], vw.info["Model"], vw.info["Serial"], vw.info["Version"])
	return infoStr
}

func (vw *VisaObjectWrapper) SetErrorQuery(query string) {
	vw.errorQuery = query
}
